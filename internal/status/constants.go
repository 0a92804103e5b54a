// internal/status/constants.go
package status

// Status constants.
// These values are reported on the metrics endpoint and MUST NOT change meaning.

// ---- HEALTH CODES ----

// HealthUnknown represents the state before the first cycle completes.
const HealthUnknown uint16 = 0

// HealthOK represents a cycle that produced a record.
const HealthOK uint16 = 1

// HealthError represents a fatal condition; the poller has stopped.
const HealthError uint16 = 2

// HealthStale represents transient decode failures inside the watchdog window.
const HealthStale uint16 = 3

// ---- ERROR CODES ----

// CodeNone means no error.
const CodeNone uint16 = 0

// CodeGeneric is reported for errors that expose no code.
const CodeGeneric uint16 = 1

// Codes 2-4 are owned by usb2snes.Error (not attached, invalid argument, protocol).

// CodeLayoutMismatch is reported while the tilemap does not match the layout.
const CodeLayoutMismatch uint16 = 5

// CodeNotReady is reported while the screen still shows placeholders.
const CodeNotReady uint16 = 6

// Code 7 is owned by poller.ErrTimeout.

// ---- LIMITS ----

// SecondsInErrorMax caps SecondsInError; the counter MUST NOT wrap.
const SecondsInErrorMax = 65535
