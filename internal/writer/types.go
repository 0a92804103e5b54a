// internal/writer/types.go
package writer

import "time"

// TimeLayout is the local ISO-8601 timestamp written at the start of every line.
const TimeLayout = "2006-01-02T15:04:05.000000"

// TimeColumn is the first header column.
const TimeColumn = "Time"

// Sink accepts log lines. One call = one line, persisted before return.
// Not safe for concurrent writers.
type Sink interface {
	// WriteHeader writes the column line. Called exactly once, first.
	WriteHeader(columns []string) error

	// WriteRecord writes one measurement line.
	WriteRecord(at time.Time, fields []string) error

	// WriteMessage writes a diagnostic line.
	WriteMessage(at time.Time, msg string) error
}
