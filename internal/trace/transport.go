// internal/trace/transport.go
package trace

import (
	"time"

	"github.com/google/uuid"
	"github.com/tamzrod/smpspeed-logger/internal/poller/usb2snes"
)

// Recorder receives captured events.
type Recorder interface {
	Record(ev Event)
}

// Transport records every frame passing through an inner transport.
type Transport struct {
	inner usb2snes.Transport
	rec   Recorder
	id    string
	now   func() time.Time
}

// Wrap returns a recording transport with a fresh connection ID.
func Wrap(inner usb2snes.Transport, rec Recorder) *Transport {
	return &Transport{
		inner: inner,
		rec:   rec,
		id:    uuid.NewString(),
		now:   time.Now,
	}
}

// ConnectionID identifies this connection in the trace file.
func (t *Transport) ConnectionID() string { return t.id }

func (t *Transport) WriteMessage(messageType int, data []byte) error {
	err := t.inner.WriteMessage(messageType, data)
	t.record(DirectionOut, messageType, data, err)
	return err
}

func (t *Transport) ReadMessage() (int, []byte, error) {
	mt, data, err := t.inner.ReadMessage()
	t.record(DirectionIn, mt, data, err)
	return mt, data, err
}

func (t *Transport) Close() error {
	return t.inner.Close()
}

func (t *Transport) record(dir Direction, mt int, data []byte, err error) {
	ev := Event{
		Timestamp:    t.now(),
		ConnectionID: t.id,
		Direction:    dir,
		MessageType:  mt,
		Payload:      append([]byte(nil), data...),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	t.rec.Record(ev)
}

var _ usb2snes.Transport = (*Transport)(nil)
