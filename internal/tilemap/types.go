// internal/tilemap/types.go
package tilemap

// Status is the outcome class of one decode.
type Status uint8

const (
	StatusOK Status = iota

	// StatusNotReady: the screen is up but still shows placeholders.
	StatusNotReady

	// StatusLayoutMismatch: the sampled memory is not the results screen.
	StatusLayoutMismatch
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotReady:
		return "not_ready"
	case StatusLayoutMismatch:
		return "layout_mismatch"
	default:
		return "unknown"
	}
}

// Record is one decoded measurement, one field per layout row.
type Record []string

// Result is a tagged decode outcome.
// Record is set only for StatusOK; Err only for StatusLayoutMismatch.
type Result struct {
	Status Status
	Record Record
	Err    error
}

// OK reports whether the result carries a record.
func (r Result) OK() bool {
	return r.Status == StatusOK
}
