package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldStrataID    = "strata_id"
	FieldReminderID  = "reminder_id"
	FieldTierID      = "tier_id"
	FieldUnitID      = "unit_id"
	FieldFundID      = "fund_id"
	FieldExpenseID   = "expense_id"
	FieldAmountCents = "amount_cents"
	FieldNextDate    = "next_date"
	FieldPattern     = "pattern"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentReminder = "reminder"
	ComponentReport   = "report"
	ComponentLedger   = "ledger"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
	ComponentTrace    = "trace"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpDispatch = "dispatch"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
