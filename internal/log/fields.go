package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDuration    = "duration_ms"
	FieldUserID      = "user_id"
	FieldAccountID   = "account_id"
	FieldCategoryID  = "category_id"
	FieldKind        = "kind"
	FieldAmountCents = "amount_cents"
	FieldBalance     = "balance_cents"
	FieldEventType   = "event_type"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentBot     = "bot"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentAuditor = "auditor"
)
