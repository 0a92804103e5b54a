// internal/writer/writer.go
package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// CSVWriter formats lines as comma separated text.
//
//	header:  "Time","A", "B", ...
//	record:  <ts>, a, b, ...
//	message: <ts>, "text"
type CSVWriter struct {
	out  *bufio.Writer
	echo io.Writer

	headerDone bool
}

var _ Sink = (*CSVWriter)(nil)

// New creates a writer over out. Every line is also copied to echo when non-nil.
func New(out io.Writer, echo io.Writer) *CSVWriter {
	return &CSVWriter{
		out:  bufio.NewWriter(out),
		echo: echo,
	}
}

func (w *CSVWriter) WriteHeader(columns []string) error {
	if w.headerDone {
		return errors.New("writer: header already written")
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + c + `"`
	}

	w.headerDone = true
	return w.line(`"` + TimeColumn + `",` + strings.Join(quoted, ", "))
}

func (w *CSVWriter) WriteRecord(at time.Time, fields []string) error {
	return w.line(timestamp(at) + ", " + strings.Join(fields, ", "))
}

func (w *CSVWriter) WriteMessage(at time.Time, msg string) error {
	return w.line(fmt.Sprintf(`%s, "%s"`, timestamp(at), msg))
}

// line writes and flushes exactly one line.
func (w *CSVWriter) line(s string) error {
	if w.echo != nil {
		// echo is best-effort; the file is the record.
		_, _ = io.WriteString(w.echo, s+"\n")
	}

	if _, err := w.out.WriteString(s + "\n"); err != nil {
		return fmt.Errorf("writer: write: %w", err)
	}
	if err := w.out.Flush(); err != nil {
		return fmt.Errorf("writer: flush: %w", err)
	}
	return nil
}

func timestamp(at time.Time) string {
	return at.Local().Format(TimeLayout)
}
