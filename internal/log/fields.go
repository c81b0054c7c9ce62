package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldSuccess     = "success"
	FieldMonth       = "month"
	FieldTxID        = "tx_id"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldTxType      = "tx_type"
	FieldEndpoint    = "endpoint"
	FieldMethod      = "method"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserEmail   = "user_email"
	FieldGeneration  = "generation"
	FieldRowCount    = "row_count"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentAPI          = "api"
	ComponentSession      = "session"
	ComponentTransactions = "transactions"
	ComponentBudget       = "budget"
	ComponentInsights     = "insights"
	ComponentMirror       = "mirror"
	ComponentWorker       = "worker"
	ComponentSecrets      = "secrets"
	ComponentCache        = "cache"
	ComponentNotify       = "notify"
)

// Operations defines standard operation names
const (
	OpLoad      = "load"
	OpAdd       = "add"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpUndo      = "undo"
	OpSignIn    = "sign_in"
	OpSignUp    = "sign_up"
	OpSignOut   = "sign_out"
	OpBootstrap = "bootstrap"
	OpSync      = "sync"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
