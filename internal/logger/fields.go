package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the batch job ID
	FieldJobID = "job_id"

	// FieldJobKind is the batch job kind (enrichment, scoring)
	FieldJobKind = "job_kind"

	// FieldWorkspaceID is the owning workspace
	FieldWorkspaceID = "workspace_id"

	// FieldEventID is the event being ranked
	FieldEventID = "event_id"

	// FieldContactID is the contact being processed
	FieldContactID = "contact_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldSize is a payload size in bytes
	FieldSize = "size"
)
