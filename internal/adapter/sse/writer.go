package sse

import (
	"io"
	"strings"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// eventWriter encodes server-sent events onto w.
type eventWriter struct {
	w   io.Writer
	buf strings.Builder
}

func newEventWriter(w io.Writer) *eventWriter {
	return &eventWriter{w: w}
}

// data writes msg as one event. Every line of msg becomes its own data field
// so clients reassemble it with the original line breaks.
func (ew *eventWriter) data(msg string) error {
	ew.buf.Reset()
	for _, line := range strings.Split(lineBreaks.Replace(msg), "\n") {
		ew.buf.WriteString("data: ")
		ew.buf.WriteString(line)
		ew.buf.WriteByte('\n')
	}
	ew.buf.WriteByte('\n')
	return ew.flushBuffer()
}

// comment writes a comment block, which clients ignore. An empty text is
// the keep-alive form ":\n\n".
func (ew *eventWriter) comment(text string) error {
	ew.buf.Reset()
	ew.buf.WriteByte(':')
	ew.buf.WriteString(lineBreaks.Replace(text))
	ew.buf.WriteString("\n\n")
	return ew.flushBuffer()
}

func (ew *eventWriter) flushBuffer() error {
	_, err := io.WriteString(ew.w, ew.buf.String())
	return err
}
