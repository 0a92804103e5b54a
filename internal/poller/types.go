// internal/poller/types.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/smpspeed-logger/internal/sampler"
	"github.com/tamzrod/smpspeed-logger/internal/status"
	"github.com/tamzrod/smpspeed-logger/internal/tilemap"
)

// Error is a classified poller error. Code is consumed by status.ErrorCode.
type Error struct {
	code uint16
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the numeric error class.
func (e *Error) Code() uint16 { return e.code }

// ErrTimeout: no successful decode within the watchdog window of a cycle start.
var ErrTimeout = &Error{code: 7, msg: "Timeout"}

// Defaults for the cycle timing.
const (
	DefaultInterval = 5 * time.Second
	DefaultBackoff  = 250 * time.Millisecond
	DefaultWatchdog = 60 * time.Second
	DefaultMinSleep = 500 * time.Millisecond
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	// Interval is the target spacing between cycle starts.
	Interval time.Duration

	// Backoff is the sleep between retries of a transient decode failure.
	Backoff time.Duration

	// Watchdog bounds how long a cycle may go without a record.
	Watchdog time.Duration

	// MinSleep is the floor on the sleep between records.
	MinSleep time.Duration
}

// DefaultConfig returns the reference timing for a given interval.
func DefaultConfig(interval time.Duration) Config {
	return Config{
		Interval: interval,
		Backoff:  DefaultBackoff,
		Watchdog: DefaultWatchdog,
		MinSleep: DefaultMinSleep,
	}
}

// Sampler returns a stable snapshot of the grid memory.
type Sampler interface {
	Sample(ctx context.Context, deadline time.Time) (sampler.Snapshot, error)
}

// Observer receives cycle events. All methods must be cheap.
type Observer interface {
	ObserveRecord(cycle time.Duration)
	ObserveRetry(s tilemap.Status)
	ObserveStatus(s status.Snapshot)
}

// Clock is the time source for cadence and backoff.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pollState is owned by the run loop and reset on every record.
type pollState struct {
	cycleStart   time.Time
	failingSince time.Time // zero while healthy
	lastCode     uint16
}
