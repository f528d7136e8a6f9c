package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOwnerID       = "owner_id"
	FieldAccountID     = "account_id"
	FieldTransactionID = "transaction_id"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldBackend       = "backend"
)

// Standard component names
const (
	ComponentBackend = "backend"
	ComponentWorker  = "worker"
)
