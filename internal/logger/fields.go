package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the pipeline job ID
	FieldJobID = "job_id"

	// FieldDocumentID is the document being processed
	FieldDocumentID = "document_id"

	// FieldStage is the current pipeline stage
	FieldStage = "stage"

	// FieldEngine is the OCR engine handling the stage
	FieldEngine = "engine"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields, attached at the log-entry level for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldConfidence is a 0-1 confidence score
	FieldConfidence = "confidence"

	// FieldProgress is the job progress percentage
	FieldProgress = "progress"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
