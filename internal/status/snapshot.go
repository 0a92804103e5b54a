// internal/status/snapshot.go
package status

import "time"

// Snapshot is the poller health as seen from outside.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// Stale builds the snapshot for a transient failure that started at since.
func Stale(code uint16, since, now time.Time) Snapshot {
	return Snapshot{
		Health:         HealthStale,
		LastErrorCode:  code,
		SecondsInError: secondsSince(since, now),
	}
}

// Failed builds the terminal snapshot for a fatal error.
func Failed(err error, since, now time.Time) Snapshot {
	s := Snapshot{
		Health:        HealthError,
		LastErrorCode: ErrorCode(err),
	}
	if !since.IsZero() {
		s.SecondsInError = secondsSince(since, now)
	}
	return s
}

// OK is the snapshot after a successful cycle.
func OK() Snapshot {
	return Snapshot{Health: HealthOK}
}

func secondsSince(since, now time.Time) uint16 {
	d := now.Sub(since)
	if d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	if secs > SecondsInErrorMax {
		return SecondsInErrorMax
	}
	return uint16(secs)
}
