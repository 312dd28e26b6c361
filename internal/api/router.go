package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/guestrank/internal/api/handler"
	"github.com/timmy/guestrank/internal/api/middleware"
	"github.com/timmy/guestrank/internal/config"
	"github.com/timmy/guestrank/internal/logger"
	"github.com/timmy/guestrank/internal/service"
)

// Services bundles everything the HTTP surface needs.
type Services struct {
	Jobs        *service.JobService
	Processor   *service.Processor
	Scores      service.ScoreReader
	Invitations *service.InvitationService
	Seating     *service.SeatingService
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *config.ServerConfig, log *logger.Logger, svcs *Services) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler()
	jobsHandler := handler.NewJobsHandler(svcs.Jobs)
	triggerHandler := handler.NewTriggerHandler(svcs.Processor)
	scoresHandler := handler.NewScoresHandler(svcs.Scores)
	invitationsHandler := handler.NewInvitationsHandler(svcs.Invitations)
	seatingHandler := handler.NewSeatingHandler(svcs.Seating)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Batch jobs
		v1.POST("/jobs", jobsHandler.Create)
		v1.GET("/jobs/active", jobsHandler.GetActive)
		v1.GET("/jobs/:id", jobsHandler.Get)

		// Manual processor pass
		v1.POST("/trigger", triggerHandler.Trigger)

		// Scores
		v1.GET("/scores", scoresHandler.List)

		// Invitations
		v1.POST("/invitations/:id/decline", invitationsHandler.Decline)

		// Seating
		v1.POST("/events/:id/seating", seatingHandler.Generate)
		v1.GET("/events/:id/seating", seatingHandler.List)
	}

	return r
}
