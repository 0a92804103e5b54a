// internal/tilemap/tilemap.go
package tilemap

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ---- GRID GEOMETRY ----

// RowStride is the number of bytes per tilemap row.
const RowStride = 32

// HeaderColumn is the byte offset of the row label inside a row.
const HeaderColumn = 1

// ---- SMPSPEED SCREEN ----

// SMPSpeedOffset is the unified offset of the smpspeed text buffer (Work-RAM).
const SMPSpeedOffset uint32 = 0xF50260

// SMPSpeedRows is the number of text rows the smpspeed screen uses.
const SMPSpeedRows = 15

// SMPSpeedSize is the number of bytes sampled per cycle.
const SMPSpeedSize = SMPSpeedRows * RowStride

// placeholder marks a field the program has not measured yet.
const placeholder = "---"

// ErrLayoutMismatch means a row header did not match the layout.
var ErrLayoutMismatch = errors.New("tilemap: layout mismatch")

// Field is one labelled row of the grid.
type Field struct {
	Row    int
	Header string

	// Readiness marks the row whose dash placeholder means "not yet measured".
	Readiness bool
}

// Layout is the ordered set of rows that make up one record.
type Layout []Field

// SMPSpeedLayout is the smpspeed results screen, in display order.
var SMPSpeedLayout = Layout{
	{Row: 0, Header: "SNES PPU:"},
	{Row: 5, Header: "Meaning:", Readiness: true},
	{Row: 6, Header: "Slowest:"},
	{Row: 7, Header: "Fastest:"},
	{Row: 9, Header: "S-SMP clock:"},
	{Row: 10, Header: "relative:"},
	{Row: 11, Header: "Slowest:"},
	{Row: 12, Header: "Fastest:"},
	{Row: 14, Header: "DSP sample rate:"},
}

// Columns returns the record column names (headers without the colon).
func (l Layout) Columns() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = strings.ReplaceAll(r.Header, ":", "")
	}
	return out
}

// Size returns the number of bytes needed to hold every row of the layout.
func (l Layout) Size() int {
	last := -1
	for _, r := range l {
		if r.Row > last {
			last = r.Row
		}
	}
	return (last + 1) * RowStride
}

// ---- DECODE ----

// DecodeRow extracts the value of one row.
// Values are NUL padded, so the text ends at the first NUL.
func DecodeRow(tilemap []byte, fld Field) (string, error) {
	hStart := fld.Row*RowStride + HeaderColumn
	hEnd := hStart + len(fld.Header)
	rowEnd := (fld.Row + 1) * RowStride

	if fld.Row < 0 || hEnd > rowEnd || rowEnd > len(tilemap) {
		return "", fmt.Errorf("%w: row %d outside %d byte tilemap", ErrLayoutMismatch, fld.Row, len(tilemap))
	}

	if !bytes.Equal(tilemap[hStart:hEnd], []byte(fld.Header)) {
		return "", fmt.Errorf("%w: row %d header %q, expected %q",
			ErrLayoutMismatch, fld.Row, tilemap[hStart:hEnd], fld.Header)
	}

	data := bytes.Trim(tilemap[hEnd:rowEnd], "\x00 ")
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}

	// A strict ASCII decode would make this fatal; here it is retried
	// like any other mismatch until the watchdog fires.
	for _, b := range data {
		if b > 0x7F {
			return "", fmt.Errorf("%w: row %d is not ASCII", ErrLayoutMismatch, fld.Row)
		}
	}

	return string(data), nil
}

// Decode decodes every row of the layout.
// All-or-nothing: a single bad row discards the record.
func Decode(tilemap []byte, layout Layout) Result {
	fields := make([]string, 0, len(layout))

	for _, fld := range layout {
		v, err := DecodeRow(tilemap, fld)
		if err != nil {
			return Result{Status: StatusLayoutMismatch, Err: err}
		}
		fields = append(fields, v)
	}

	// Read during setup the screen shows "60, ------, ------, ..."
	for i, fld := range layout {
		if fld.Readiness && strings.Contains(fields[i], placeholder) {
			return Result{Status: StatusNotReady}
		}
	}

	return Result{Status: StatusOK, Record: Record(fields)}
}
