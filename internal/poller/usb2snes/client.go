// internal/poller/usb2snes/client.go
package usb2snes

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// BlockSize is the PutAddress chunk size the device expects.
const BlockSize = 1024

// DefaultDeviceMarker selects the first SD2SNES in the device list.
const DefaultDeviceMarker = "SD2SNES"

// Opcode is one usb2snes command.
type Opcode string

const (
	OpDeviceList Opcode = "DeviceList"
	OpAttach     Opcode = "Attach"
	OpInfo       Opcode = "Info"
	OpGetAddress Opcode = "GetAddress"
	OpPutAddress Opcode = "PutAddress"
	OpReset      Opcode = "Reset"
)

const space = "SNES"

// Command is one JSON control frame.
type Command struct {
	Opcode   Opcode   `json:"Opcode"`
	Space    string   `json:"Space"`
	Flags    []string `json:"Flags"`
	Operands []string `json:"Operands"`
}

// NewCommand builds a command frame. Operands always encode as an array.
func NewCommand(op Opcode, operands ...string) Command {
	if operands == nil {
		operands = []string{}
	}
	return Command{
		Opcode:   op,
		Space:    space,
		Operands: operands,
	}
}

type reply struct {
	Results json.RawMessage `json:"Results"`
}

// Client implements the usb2snes command vocabulary over one Transport.
// It owns the transport for its lifetime. Not safe for concurrent use.
type Client struct {
	tr     Transport
	marker string
	log    zerolog.Logger

	device string
	closed bool

	closeOnce sync.Once
	closeErr  error
}

// New wraps an open transport. The client is unattached until Attach succeeds.
func New(tr Transport, marker string, log zerolog.Logger) *Client {
	if marker == "" {
		marker = DefaultDeviceMarker
	}
	return &Client{
		tr:     tr,
		marker: strings.ToUpper(marker),
		log:    log.With().Str("component", "usb2snes").Logger(),
	}
}

// Device returns the attached device name, or "" when unattached.
func (c *Client) Device() string {
	return c.device
}

// Close closes the transport. Safe to call more than once.
func (c *Client) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	c.device = ""
	return c.closeTransport()
}

// Watch closes the transport when ctx is done, so a receive blocked on a
// silent device returns an error. The returned func detaches the watch.
func (c *Client) Watch(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		c.log.Debug().Msg("context done, closing transport")
		_ = c.closeTransport()
	})
}

func (c *Client) closeTransport() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.tr.Close()
	})
	return c.closeErr
}

// ---- commands ----

// Attach attaches to the first listed device matching the marker.
// Returns false (and no error) when no device matches.
func (c *Client) Attach() (bool, error) {
	if c.closed {
		return false, fmt.Errorf("%w: connection closed", ErrNotAttached)
	}

	devices, err := c.requestResponse(NewCommand(OpDeviceList))
	if err != nil {
		return false, err
	}

	var device string
	for _, d := range devices {
		if strings.Contains(strings.ToUpper(d), c.marker) {
			device = d
			break
		}
	}
	if device == "" {
		c.log.Debug().Strs("devices", devices).Msg("no matching device")
		return false, nil
	}

	if err := c.send(NewCommand(OpAttach, device)); err != nil {
		return false, err
	}

	c.device = device
	c.log.Info().Str("device", device).Msg("attached")
	return true, nil
}

// DeviceInfo returns the path of the program the device is running.
func (c *Client) DeviceInfo() (string, error) {
	if err := c.assertAttached(); err != nil {
		return "", err
	}

	r, err := c.requestResponse(NewCommand(OpInfo))
	if err != nil {
		return "", err
	}
	if len(r) < 3 {
		return "", fmt.Errorf("%w: Info returned %d results, expected at least 3", ErrProtocol, len(r))
	}
	return r[2], nil
}

// ProgramName strips directory components from a DeviceInfo path.
func ProgramName(p string) string {
	return path.Base(p)
}

// Reset resets the console. The device does not reply.
func (c *Client) Reset() error {
	if err := c.assertAttached(); err != nil {
		return err
	}
	return c.send(NewCommand(OpReset))
}

// ReadMemory reads size bytes at a unified offset.
// The reply may arrive in any number of binary frames (WRAM comes in 128 byte blocks).
func (c *Client) ReadMemory(offset uint32, size int) ([]byte, error) {
	if err := c.assertAttached(); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInvalidArgument, size)
	}
	if size == 0 {
		return []byte{}, nil
	}

	if err := c.send(NewCommand(OpGetAddress, hex(offset), hex(uint32(size)))); err != nil {
		return nil, err
	}

	out := make([]byte, 0, size)
	for len(out) < size {
		mt, frame, err := c.tr.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("usb2snes: read frame: %w", err)
		}
		if mt != websocket.BinaryMessage {
			return nil, fmt.Errorf("%w: expected binary frame, got message type %d", ErrProtocol, mt)
		}
		out = append(out, frame...)
	}

	if len(out) != size {
		return nil, fmt.Errorf("%w: size mismatch: got %d bytes, expected %d", ErrProtocol, len(out), size)
	}

	return out, nil
}

// ReadWRAM reads Work-RAM at a console bank:offset address.
func (c *Client) ReadWRAM(addr uint32, size int) ([]byte, error) {
	offset, err := TranslateWRAMAddress(addr)
	if err != nil {
		return nil, err
	}
	return c.ReadMemory(offset, size)
}

// WriteMemory writes data at a unified offset in BlockSize frames.
// Work-RAM cannot be written.
func (c *Client) WriteMemory(offset uint32, data []byte) error {
	if err := c.assertAttached(); err != nil {
		return err
	}
	if r, ok := regionOf(offset); ok && !r.Writable() {
		return fmt.Errorf("%w: cannot write to %s (%06X)", ErrInvalidArgument, r, offset)
	}

	size := len(data)
	if size == 0 {
		return nil
	}

	if err := c.send(NewCommand(OpPutAddress, hex(offset), hex(uint32(size)))); err != nil {
		return err
	}

	for start := 0; start < size; start += BlockSize {
		end := start + BlockSize
		if end > size {
			end = size
		}
		if err := c.tr.WriteMessage(websocket.BinaryMessage, data[start:end]); err != nil {
			return fmt.Errorf("usb2snes: write frame: %w", err)
		}
	}

	return nil
}

// ---- internal request/response helpers ----

func (c *Client) assertAttached() error {
	if c.closed {
		return fmt.Errorf("%w: connection closed", ErrNotAttached)
	}
	if c.device == "" {
		return ErrNotAttached
	}
	return nil
}

func (c *Client) send(cmd Command) error {
	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	c.log.Trace().RawJSON("command", b).Msg("send")

	if err := c.tr.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("usb2snes: send %s: %w", cmd.Opcode, err)
	}
	return nil
}

func (c *Client) response() ([]string, error) {
	mt, raw, err := c.tr.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("usb2snes: read reply: %w", err)
	}
	if mt != websocket.TextMessage {
		return nil, fmt.Errorf("%w: expected text reply, got message type %d", ErrProtocol, mt)
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: invalid reply: %v", ErrProtocol, err)
	}
	if len(r.Results) == 0 {
		return nil, fmt.Errorf("%w: reply has no Results", ErrProtocol)
	}

	var results []string
	if err := json.Unmarshal(r.Results, &results); err != nil || results == nil {
		return nil, fmt.Errorf("%w: invalid response type, expected a list of strings", ErrProtocol)
	}

	return results, nil
}

func (c *Client) requestResponse(cmd Command) ([]string, error) {
	if err := c.send(cmd); err != nil {
		return nil, err
	}
	return c.response()
}

// hex formats a number the way the device parses operands.
func hex(v uint32) string {
	return fmt.Sprintf("%#x", v)
}
