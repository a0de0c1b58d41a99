// Package log defines the structured logger used across the framework.
//
// A log line is made of a tag, a message, and a list of typed fields.
// Formatters turn a line into its final representation and printers ship
// it to its destination. Both are pluggable adapters.
package log

// Level defines log severity
type Level int

const (
	// LevelTrace displays logs with trace level (and above)
	LevelTrace Level = iota
	// LevelWarning displays logs with warning level (and above)
	LevelWarning
	// LevelError displays only logs with error level
	LevelError
)

// String returns the short level code used on log lines
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TR"
	case LevelWarning:
		return "WN"
	case LevelError:
		return "ER"
	}
	return "??"
}

// ParseLevel converts a level name into a Level
// Unknown names are mapped to trace to avoid silently dropping logs
func ParseLevel(s string) Level {
	switch s {
	case "warning":
		return LevelWarning
	case "error":
		return LevelError
	}
	return LevelTrace
}

// Logger is an interface for app loggers
type Logger interface {
	Trace(tag, msg string, fields ...Field)
	Warning(tag, msg string, fields ...Field)
	Error(tag, msg string, fields ...Field)

	// With returns a child logger, which always logs the given fields
	With(fields ...Field) Logger
	// AddCalldepth increases the number of stack frames to ascend to find
	// the caller file info
	AddCalldepth(n int) Logger
}

// Ctx carries the invariants of a log line
type Ctx struct {
	Level     string
	Timestamp string
	Service   string
	File      string
}

// Formatter converts a log line into a string representation
type Formatter interface {
	Format(ctx *Ctx, tag, msg string, fields ...Field) (string, error)
}

// Printer sends a formatted log line to its destination (stdout, file, ...)
type Printer interface {
	Print(ctx *Ctx, s string) error
}
