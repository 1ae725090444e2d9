// Package logging decouples the reconciliation engine from the logging framework.
// Components depend on Logger; main wires the logrus implementation and tests
// use MockLogger.
package logging

// Logger defines structured logging used throughout the application.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a logger carrying err on every entry
	WithError(err error) Logger

	// WithField returns a logger carrying a single field on every entry
	WithField(key string, value interface{}) Logger

	// WithFields returns a logger carrying fields on every entry
	WithFields(fields ...Field) Logger
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
