package logging

// Standard field names, kept identical across components so log lines can be filtered.
const (
	FieldComponent     = "component"
	FieldStatementID   = "statement_id"
	FieldTransactionID = "transaction_id"
	FieldPaymentID     = "payment_id"
	FieldExceptionID   = "exception_id"
	FieldReportID      = "report_id"
	FieldActorID       = "actor_id"
	FieldConfidence    = "confidence"
	FieldMatchType     = "match_type"
	FieldStatus        = "status"
	FieldCount         = "count"
	FieldDuration      = "duration_ms"
	FieldInputFile     = "input_file"
	FieldOutputFile    = "output_file"
	FieldAction        = "action"
	FieldJob           = "job"
)
