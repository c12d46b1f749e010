package log

// Common field names for structured logging.
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
	FieldUserID        = "user_id"
	FieldPeriod        = "period"
	FieldEnvelope      = "envelope"
	FieldAmountCents   = "amount_cents"
	FieldTransactionID = "transaction_id"
	FieldHabitID       = "habit_id"
	FieldGoalID        = "goal_id"
	FieldDate          = "date"
	FieldFrequency     = "frequency"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBudget    = "budget"
	ComponentHabit     = "habit"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentRemote    = "remote"
	ComponentImport    = "import"
	ComponentRecurring = "recurring"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)
