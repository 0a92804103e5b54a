// internal/trace/dump.go
package trace

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

// Dump prints every event in r as one text line.
// Text frames are printed as-is, binary frames as their length.
func Dump(w io.Writer, r io.Reader) error {
	events, err := ReadAll(r)
	for _, ev := range events {
		if _, werr := fmt.Fprintln(w, formatEvent(ev)); werr != nil {
			return werr
		}
	}
	return err
}

func formatEvent(ev Event) string {
	line := fmt.Sprintf("%s %s %-3s", ev.Timestamp.Format(time.RFC3339Nano), ev.ConnectionID, ev.Direction)

	switch {
	case ev.Error != "":
		line += " error: " + ev.Error
	case ev.MessageType == websocket.TextMessage && utf8.Valid(ev.Payload):
		line += " text " + string(ev.Payload)
	default:
		line += fmt.Sprintf(" binary %d bytes", len(ev.Payload))
	}

	return line
}
