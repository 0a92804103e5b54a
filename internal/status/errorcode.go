// internal/status/errorcode.go
package status

import (
	"errors"

	"github.com/tamzrod/smpspeed-logger/internal/tilemap"
)

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns CodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return CodeNone
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	if errors.Is(err, tilemap.ErrLayoutMismatch) {
		return CodeLayoutMismatch
	}

	return CodeGeneric
}

// ResultCode maps a transient decode status onto an error code.
func ResultCode(s tilemap.Status) uint16 {
	switch s {
	case tilemap.StatusOK:
		return CodeNone
	case tilemap.StatusNotReady:
		return CodeNotReady
	case tilemap.StatusLayoutMismatch:
		return CodeLayoutMismatch
	default:
		return CodeGeneric
	}
}
