package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldOwnerID       = "owner_id"
	FieldAccountID     = "account_id"
	FieldInstitutionID = "institution_id"
	FieldExternalID    = "external_id"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
	FieldImported      = "imported"
	FieldUpdated       = "updated"
	FieldSkipped       = "skipped"
	FieldErrors        = "errors"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentIngest  = "ingest"
	ComponentBudget  = "budget"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)

// Operations defines standard operation names
const (
	OpImport   = "import"
	OpLink     = "link"
	OpProgress = "progress"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
