// internal/poller/usb2snes/transport.go
package usb2snes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the message connection the client owns.
// *websocket.Conn satisfies it; message types are the websocket constants.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, data []byte, err error)
	Close() error
}

// Config is minimal transport config.
type Config struct {
	Address string
	Origin  string

	// HandshakeTimeout bounds the websocket upgrade.
	HandshakeTimeout time.Duration

	// ReadTimeout bounds every receive. Zero blocks until a frame or close.
	ReadTimeout time.Duration

	// DeviceMarker selects the device during Attach (case-insensitive substring).
	DeviceMarker string
}

// Dial opens the websocket control connection.
func Dial(ctx context.Context, cfg Config) (Transport, error) {
	if cfg.Address == "" {
		return nil, errors.New("usb2snes: address required")
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	headers := http.Header{}
	if cfg.Origin != "" {
		// QUsb2Snes refuses upgrades without an Origin header.
		headers.Set("Origin", cfg.Origin)
	}

	conn, _, err := dialer.DialContext(ctx, cfg.Address, headers)
	if err != nil {
		return nil, err
	}

	if cfg.ReadTimeout > 0 {
		return &deadlineConn{Conn: conn, timeout: cfg.ReadTimeout}, nil
	}
	return conn, nil
}

// deadlineConn arms a read deadline before every receive.
type deadlineConn struct {
	*websocket.Conn
	timeout time.Duration
}

func (c *deadlineConn) ReadMessage() (int, []byte, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, nil, err
	}
	return c.Conn.ReadMessage()
}
