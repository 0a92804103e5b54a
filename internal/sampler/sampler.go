// internal/sampler/sampler.go
package sampler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDeadline means no stable snapshot was obtained before the deadline.
var ErrDeadline = errors.New("sampler: deadline exceeded")

// Reader abstracts the memory read the sampler needs.
type Reader interface {
	ReadMemory(offset uint32, size int) ([]byte, error)
}

// Observer receives per-read and per-sample counts. May be nil.
type Observer interface {
	ObserveRead(bytes int)
	ObserveSample(reads int)
}

// Snapshot is a torn-read free copy of a memory region.
type Snapshot struct {
	Offset uint32
	Data   []byte
}

// Size returns the snapshot length in bytes.
func (s Snapshot) Size() int {
	return len(s.Data)
}

// Equal reports whether two snapshots cover the same region with the same bytes.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Offset == o.Offset && bytes.Equal(s.Data, o.Data)
}

// Stable calls read until the three most recent results are identical.
// Returns the settled bytes and the number of reads made.
// There is no retry limit: callers bound it by failing read.
func Stable(read func() ([]byte, error)) ([]byte, int, error) {
	var window [3][]byte
	n := 0

	for {
		b, err := read()
		if err != nil {
			return nil, n, err
		}
		n++

		window[0], window[1], window[2] = window[1], window[2], b

		if n >= 3 && bytes.Equal(window[0], window[1]) && bytes.Equal(window[1], window[2]) {
			return window[2], n, nil
		}
	}
}

// Sampler reads one fixed region and waits for it to settle.
type Sampler struct {
	r      Reader
	offset uint32
	size   int
	now    func() time.Time
	obs    Observer
}

// New creates a sampler. now defaults to time.Now.
func New(r Reader, offset uint32, size int, now func() time.Time, obs Observer) (*Sampler, error) {
	if r == nil {
		return nil, errors.New("sampler: reader required")
	}
	if size < 0 {
		return nil, fmt.Errorf("sampler: invalid size %d", size)
	}
	if now == nil {
		now = time.Now
	}
	return &Sampler{r: r, offset: offset, size: size, now: now, obs: obs}, nil
}

// Sample returns a stable snapshot of the region.
// The deadline and ctx are checked before every read; a zero deadline disables the check.
func (s *Sampler) Sample(ctx context.Context, deadline time.Time) (Snapshot, error) {
	read := func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !deadline.IsZero() && s.now().After(deadline) {
			return nil, ErrDeadline
		}

		b, err := s.r.ReadMemory(s.offset, s.size)
		if err != nil {
			return nil, err
		}
		if s.obs != nil {
			s.obs.ObserveRead(len(b))
		}
		return b, nil
	}

	data, n, err := Stable(read)
	if err != nil {
		return Snapshot{}, err
	}
	if s.obs != nil {
		s.obs.ObserveSample(n)
	}

	return Snapshot{Offset: s.offset, Data: data}, nil
}
