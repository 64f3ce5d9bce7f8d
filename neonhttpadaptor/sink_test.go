package neonhttpadaptor

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noxx-digital/neonhttp"
)

func TestSinkCommit(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	s := NewSink(w)

	if err := s.WriteStatusLine("1.1", http.StatusAccepted, "Accepted"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.WriteHeaderLine("X-Foo:  bar"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Committed() {
		t.Fatalf("unexpected commit before the first body write")
	}
	if _, err := s.Write([]byte("body")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Committed() {
		t.Fatalf("expecting commit after the first body write")
	}
	if w.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code %d. Expecting %d", w.Code, http.StatusAccepted)
	}
	if v := w.Header().Get("X-Foo"); v != "bar" {
		t.Fatalf("unexpected header value %q. Expecting %q", v, "bar")
	}

	err := s.WriteStatusLine("1.1", http.StatusOK, "OK")
	if !errors.Is(err, ErrCommitted) {
		t.Fatalf("unexpected error %v. Expecting %v", err, ErrCommitted)
	}
	err = s.WriteHeaderLine("X-Bar: baz")
	if !errors.Is(err, ErrCommitted) {
		t.Fatalf("unexpected error %v. Expecting %v", err, ErrCommitted)
	}
}

func TestSinkMalformedHeaderLine(t *testing.T) {
	t.Parallel()

	s := NewSink(httptest.NewRecorder())
	for _, line := range []string{"no colon", ": empty name"} {
		if err := s.WriteHeaderLine(line); !errors.Is(err, neonhttp.ErrInvalidHeader) {
			t.Fatalf("unexpected error %v for %q. Expecting %v", err, line, neonhttp.ErrInvalidHeader)
		}
	}
}

func TestSinkReset(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	s := NewSink(w)
	if err := s.WriteStatusLine("1.1", http.StatusNotFound, "Not Found"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.WriteHeaderLine("X-Foo: bar"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Reset()
	if s.StatusCode() != http.StatusOK {
		t.Fatalf("unexpected status code %d. Expecting %d", s.StatusCode(), http.StatusOK)
	}
	if len(w.Header()) != 0 {
		t.Fatalf("unexpected headers %v", w.Header())
	}
}
