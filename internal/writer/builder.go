// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Create opens path in exclusive-create mode and returns a writer over it.
// An existing file is never overwritten or appended to.
func Create(path string, echo io.Writer) (*CSVWriter, func() error, error) {
	if path == "" {
		return nil, nil, errors.New("writer: output path required")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("writer: create %s: %w", path, err)
	}

	closeFile := func() error {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}

	return New(f, echo), closeFile, nil
}
