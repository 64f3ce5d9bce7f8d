package neonhttp

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"golang.org/x/net/http/httpguts"
)

// ErrInvalidHeader is returned by Header.Validate when a header name
// or value can't be put on the wire.
var ErrInvalidHeader = errors.New("invalid header")

// Header represents HTTP message headers.
//
// Names keep the casing they were first stored with, but every lookup is
// case-insensitive. Iteration follows insertion order. A Header holds at
// most one entry per case-insensitive name; list-valued headers are kept
// as a single comma separated value.
//
// It is forbidden copying Header instances. Create new instances instead
// and use CopyTo.
//
// Header instance MUST NOT be used from concurrently running goroutines.
type Header struct {
	noCopy noCopy

	h []argsKV

	bufK []byte
	bufV []byte
}

// Len returns the number of headers.
func (h *Header) Len() int {
	return len(h.h)
}

// Reset clears all the headers.
func (h *Header) Reset() {
	h.h = h.h[:0]
}

// CopyTo copies all the headers to dst.
func (h *Header) CopyTo(dst *Header) {
	dst.Reset()
	dst.h = copyArgs(dst.h, h.h)
}

// Has returns true if a header with the given name exists.
func (h *Header) Has(name string) bool {
	return h.index(s2b(name)) >= 0
}

// Peek returns the header value for the given name.
//
// nil is returned when the header is missing. The returned value is valid
// until the next call modifying h.
func (h *Header) Peek(name string) []byte {
	return h.PeekBytes(s2b(name))
}

// PeekBytes returns the header value for the given name.
//
// The returned value is valid until the next call modifying h.
func (h *Header) PeekBytes(name []byte) []byte {
	i := h.index(name)
	if i < 0 {
		return nil
	}
	return h.h[i].value
}

// Get returns the header value for the given name or an empty string
// when the header is missing.
func (h *Header) Get(name string) string {
	return string(h.Peek(name))
}

// Values returns the list form of the header value.
//
// See SplitValueList for the splitting rules.
func (h *Header) Values(name string) []string {
	return SplitValueList(b2s(h.Peek(name)))
}

// Line returns 'Name: value' for the given header or an empty string
// when the header is missing. Name has the casing it was stored with.
func (h *Header) Line(name string) string {
	i := h.index(s2b(name))
	if i < 0 {
		return ""
	}
	kv := &h.h[i]
	b := make([]byte, 0, len(kv.key)+len(strColonSpace)+len(kv.value))
	b = append(b, kv.key...)
	b = append(b, strColonSpace...)
	b = append(b, kv.value...)
	return b2s(b)
}

// Set sets the given 'name: value' header.
//
// An existing header with the same case-insensitive name is replaced and
// keeps its original name casing.
func (h *Header) Set(name, value string) {
	h.bufK = append(h.bufK[:0], name...)
	h.bufV = append(h.bufV[:0], value...)
	h.SetBytesKV(h.bufK, h.bufV)
}

// SetBytesKV sets the given 'name: value' header.
//
// See Set for details.
func (h *Header) SetBytesKV(name, value []byte) {
	if i := h.index(name); i >= 0 {
		h.h[i].value = append(h.h[i].value[:0], value...)
		return
	}
	h.h = appendArg(h.h, name, value)
}

// Add adds value to the list held by the header with the given name.
//
// The header is created when it is missing. Otherwise value is appended
// after a ', ' separator.
func (h *Header) Add(name, value string) {
	i := h.index(s2b(name))
	if i < 0 {
		h.Set(name, value)
		return
	}
	kv := &h.h[i]
	if len(kv.value) > 0 {
		kv.value = append(kv.value, strCommaSpace...)
	}
	kv.value = append(kv.value, value...)
}

// Del deletes the header with the given name. Missing headers are ignored.
func (h *Header) Del(name string) {
	h.DelBytes(s2b(name))
}

// DelBytes deletes the header with the given name.
func (h *Header) DelBytes(name []byte) {
	i := h.index(name)
	if i < 0 {
		return
	}
	n := len(h.h)
	tmp := h.h[i]
	copy(h.h[i:], h.h[i+1:])
	h.h[n-1] = tmp
	h.h = h.h[:n-1]
}

// All returns an iterator over header names and values in insertion order.
//
// The header must not be modified during the iteration.
func (h *Header) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i := range h.h {
			if !yield(string(h.h[i].key), string(h.h[i].value)) {
				return
			}
		}
	}
}

// VisitAll calls f for each header in insertion order.
//
// f must not retain references to key and/or value after returning.
// Copy key and/or value contents before returning if you need retaining them.
func (h *Header) VisitAll(f func(key, value []byte)) {
	visitArgs(h.h, f)
}

// Lines returns 'Name: value' lines for all the headers in insertion order.
func (h *Header) Lines() []string {
	lines := make([]string, 0, len(h.h))
	for i := range h.h {
		kv := &h.h[i]
		lines = append(lines, string(kv.key)+string(strColonSpace)+string(kv.value))
	}
	return lines
}

// AppendBytes appends 'Name: value\r\n' lines for all the headers to dst
// and returns the extended dst.
func (h *Header) AppendBytes(dst []byte) []byte {
	for i := range h.h {
		dst = appendHeaderLine(dst, h.h[i].key, h.h[i].value)
	}
	return dst
}

// WriteTo writes the headers to w in wire format.
//
// WriteTo implements io.WriterTo interface.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(h.AppendBytes(nil))
	return int64(n), err
}

// String returns the headers in wire format.
func (h *Header) String() string {
	return string(h.AppendBytes(nil))
}

// Validate checks that every header may be put on the wire.
func (h *Header) Validate() error {
	for i := range h.h {
		kv := &h.h[i]
		if !httpguts.ValidHeaderFieldName(b2s(kv.key)) {
			return fmt.Errorf("%w: name %q", ErrInvalidHeader, kv.key)
		}
		if !httpguts.ValidHeaderFieldValue(b2s(kv.value)) {
			return fmt.Errorf("%w: value of %q", ErrInvalidHeader, kv.key)
		}
	}
	return nil
}

// setRaw stores a header value received from the ingestion side,
// normalizing list separators. Repeated values are joined with ", ".
//
// Set-Cookie values are kept verbatim and can't be joined since cookie
// dates contain commas, so the last received Set-Cookie value wins.
func (h *Header) setRaw(name, value string) {
	h.bufK = append(h.bufK[:0], name...)
	if equalFold(h.bufK, strSetCookie) {
		h.bufV = append(h.bufV[:0], value...)
		h.SetBytesKV(h.bufK, h.bufV)
		return
	}
	h.bufV = appendNormalizedValueList(h.bufV[:0], s2b(value))
	if i := h.index(h.bufK); i >= 0 {
		kv := &h.h[i]
		if len(kv.value) > 0 && len(h.bufV) > 0 {
			kv.value = append(kv.value, strCommaSpace...)
		}
		kv.value = append(kv.value, h.bufV...)
		return
	}
	h.h = appendArg(h.h, h.bufK, h.bufV)
}

func (h *Header) index(name []byte) int {
	for i := range h.h {
		if equalFold(h.h[i].key, name) {
			return i
		}
	}
	return -1
}

func appendHeaderLine(dst, key, value []byte) []byte {
	dst = append(dst, key...)
	dst = append(dst, strColonSpace...)
	dst = append(dst, value...)
	return append(dst, strCRLF...)
}

// equalFold reports whether a and b are equal under ASCII case folding.
func equalFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca == cb {
			continue
		}
		lowercaseByte(&ca)
		lowercaseByte(&cb)
		if ca != cb {
			return false
		}
	}
	return true
}

// NormalizeValueList rewrites a comma separated header value so that
// every list separator is followed by exactly one space.
//
// The value is split on commas outside double-quoted strings, each element
// is trimmed of surrounding spaces and tabs, and empty elements are
// dropped. The elements are then joined with ", ". Thus "a,b" and "a,  b"
// become "a, b", while ",a,,b," becomes "a, b" and "," becomes "".
func NormalizeValueList(v string) string {
	return string(appendNormalizedValueList(nil, s2b(v)))
}

// SplitValueList returns the elements of a comma separated header value.
//
// The rules are those of NormalizeValueList. nil is returned when v holds
// no elements.
func SplitValueList(v string) []string {
	var (
		vs     headerValueScanner
		values []string
	)
	vs.b = s2b(v)
	for vs.next() {
		values = append(values, string(vs.value))
	}
	return values
}

func appendNormalizedValueList(dst, v []byte) []byte {
	var vs headerValueScanner
	vs.b = v
	first := true
	for vs.next() {
		if !first {
			dst = append(dst, strCommaSpace...)
		}
		dst = append(dst, vs.value...)
		first = false
	}
	return dst
}

// headerValueScanner iterates over non-empty elements of a comma
// separated header value.
type headerValueScanner struct {
	b     []byte
	value []byte
}

func (s *headerValueScanner) next() bool {
	for len(s.b) > 0 {
		n := indexListComma(s.b)
		if n < 0 {
			s.value = stripSpace(s.b)
			s.b = s.b[len(s.b):]
		} else {
			s.value = stripSpace(s.b[:n])
			s.b = s.b[n+1:]
		}
		if len(s.value) > 0 {
			return true
		}
	}
	return false
}

// indexListComma returns the index of the first comma in b which isn't
// inside a quoted string, or -1.
func indexListComma(b []byte) int {
	quoted := false
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '"':
			quoted = !quoted
		case '\\':
			if quoted {
				i++
			}
		case ',':
			if !quoted {
				return i
			}
		}
	}
	return -1
}

func stripSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
