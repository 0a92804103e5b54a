// internal/tilemap/render.go
package tilemap

import (
	"fmt"
	"strings"
)

// Render builds a tilemap holding fields under the layout headers.
// It is the inverse of Decode. No IO. No side effects.
func Render(layout Layout, fields []string) ([]byte, error) {
	if len(fields) != len(layout) {
		return nil, fmt.Errorf("tilemap: %d fields for %d rows", len(fields), len(layout))
	}

	buf := make([]byte, layout.Size())

	for i, fld := range layout {
		v := fields[i]
		if strings.ContainsRune(v, 0) || strings.TrimSpace(v) != v {
			return nil, fmt.Errorf("tilemap: row %d value %q cannot round-trip", fld.Row, v)
		}

		hStart := fld.Row*RowStride + HeaderColumn
		vStart := hStart + len(fld.Header)
		rowEnd := (fld.Row + 1) * RowStride

		if vStart+len(v) > rowEnd {
			return nil, fmt.Errorf("tilemap: row %d value %q overflows the row", fld.Row, v)
		}

		copy(buf[hStart:], fld.Header)
		copy(buf[vStart:], v)
	}

	return buf, nil
}
