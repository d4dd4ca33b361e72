package logger

// Field names shared by all components so log lines can be filtered
// consistently.
const (
	FieldURI        = "uri"
	FieldPath       = "path"
	FieldVersion    = "version"
	FieldMethod     = "method"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
	FieldLine       = "line"
	FieldColumn     = "column"
	FieldTerm       = "term"
	FieldStage      = "stage"
	FieldComponent  = "component"
)
