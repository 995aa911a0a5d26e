package output

import (
	"bytes"
	"strings"
)

// LineWriter logs every complete line written to it. Call Flush after the
// last write to log a trailing partial line.
type LineWriter struct {
	log func(msg interface{}, keyvals ...interface{})
	buf bytes.Buffer
}

// NewLineWriter returns a LineWriter logging through fn, e.g. logger.Info.
func NewLineWriter(fn func(msg interface{}, keyvals ...interface{})) *LineWriter {
	return &LineWriter{log: fn}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			w.buf.WriteString(line)
			break
		}
		w.log(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush logs a trailing partial line.
func (w *LineWriter) Flush() {
	if w.buf.Len() > 0 {
		w.log(strings.TrimRight(w.buf.String(), "\r\n"))
		w.buf.Reset()
	}
}
