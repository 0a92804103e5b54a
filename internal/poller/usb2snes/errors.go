// internal/poller/usb2snes/errors.go
package usb2snes

// Error is a classified client error.
// Code is consumed by status.ErrorCode; wrap with fmt.Errorf("%w: ...").
type Error struct {
	code uint16
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the numeric error class reported in the device status block.
func (e *Error) Code() uint16 { return e.code }

var (
	// ErrNotAttached: data operation before Attach or after Close.
	ErrNotAttached = &Error{code: 2, msg: "usb2snes: not attached to device"}

	// ErrInvalidArgument: malformed address, negative size, read-only target.
	ErrInvalidArgument = &Error{code: 3, msg: "usb2snes: invalid argument"}

	// ErrProtocol: reply shape or payload size violates the protocol.
	ErrProtocol = &Error{code: 4, msg: "usb2snes: protocol error"}
)
