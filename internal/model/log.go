package model

// Severity classifies a node log line.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityDebug
	SeverityTrace
	SeverityWarning
	SeverityError
	SeverityProcessed
)

// String returns a human-readable name for the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityTrace:
		return "trace"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityProcessed:
		return "processed"
	default:
		return "info"
	}
}

// LogRecord is one classified line of node output.
type LogRecord struct {
	Severity  Severity
	Timestamp string // Empty when the line had no fixed-width prefix
	Text      string
}

// String renders the record the way the log view shows it.
func (r LogRecord) String() string {
	if r.Timestamp == "" {
		return r.Text
	}
	return r.Timestamp + " " + r.Text
}
