package repository

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/timmy/guestrank/internal/config"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := InitDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
	})
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return db
}
