package neonhttpadaptor

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/noxx-digital/neonhttp"
)

// ErrCommitted is returned by Sink when the status line or a header line
// arrives after the response head was written to the client.
var ErrCommitted = errors.New("response head already written")

// Sink is a neonhttp.ResponseSink writing to a net/http ResponseWriter.
//
// The status code and header lines are buffered until the first body
// write or Flush, since net/http accepts them only once.
type Sink struct {
	w          http.ResponseWriter
	statusCode int
	committed  bool
}

var _ neonhttp.ResponseSink = (*Sink)(nil)

// NewSink returns a sink writing to w.
func NewSink(w http.ResponseWriter) *Sink {
	return &Sink{
		w:          w,
		statusCode: http.StatusOK,
	}
}

// WriteStatusLine implements neonhttp.ResponseSink.
//
// net/http writes its own status line, so only the status code is kept.
// The reason phrase of unknown codes is lost.
func (s *Sink) WriteStatusLine(protocol string, statusCode int, reasonPhrase string) error {
	if s.committed {
		return fmt.Errorf("%w: cannot set status %d %s", ErrCommitted, statusCode, reasonPhrase)
	}
	s.statusCode = statusCode
	return nil
}

// WriteHeaderLine implements neonhttp.ResponseSink.
func (s *Sink) WriteHeaderLine(line string) error {
	if s.committed {
		return fmt.Errorf("%w: cannot add header line %q", ErrCommitted, line)
	}
	name, value, ok := strings.Cut(line, ":")
	if !ok || len(name) == 0 {
		return fmt.Errorf("%w: malformed header line %q", neonhttp.ErrInvalidHeader, line)
	}
	s.w.Header().Add(name, strings.TrimLeft(value, " \t"))
	return nil
}

// Write implements io.Writer. The response head is written first.
func (s *Sink) Write(p []byte) (int, error) {
	s.commit()
	return s.w.Write(p)
}

// Flush writes the response head if it isn't written yet and flushes
// buffered data to the client when w supports it.
func (s *Sink) Flush() {
	s.commit()
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Committed returns true if the response head was written.
func (s *Sink) Committed() bool {
	return s.committed
}

// StatusCode returns the last status code passed to the sink.
func (s *Sink) StatusCode() int {
	return s.statusCode
}

// Reset drops buffered header lines and the status code.
// It has no effect after the response head was written.
func (s *Sink) Reset() {
	if s.committed {
		return
	}
	h := s.w.Header()
	for k := range h {
		delete(h, k)
	}
	s.statusCode = http.StatusOK
}

func (s *Sink) commit() {
	if s.committed {
		return
	}
	s.committed = true
	s.w.WriteHeader(s.statusCode)
}
