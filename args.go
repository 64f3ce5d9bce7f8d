package neonhttp

import (
	"bytes"
	"errors"
	"io"
	"iter"
)

// Args represents query arguments.
//
// Keys are unique: setting an existing key replaces its value while
// keeping the position the key was first seen at. Parse follows the same
// rule, so for duplicate keys the last value wins.
//
// It is forbidden copying Args instances. Create new instances instead
// and use CopyTo().
//
// It is unsafe modifying/reading Args instance from concurrently
// running goroutines.
type Args struct {
	noCopy noCopy

	args  []argsKV
	bufKV argsKV
	buf   []byte
}

type argsKV struct {
	key   []byte
	value []byte
}

// Reset clears query args.
func (a *Args) Reset() {
	a.args = a.args[:0]
}

// CopyTo copies all args to dst.
func (a *Args) CopyTo(dst *Args) {
	dst.Reset()
	dst.args = copyArgs(dst.args, a.args)
}

// VisitAll calls f for each existing arg.
//
// f must not retain references to key and value after returning.
// Make key and/or value copies if you need storing them after returning.
func (a *Args) VisitAll(f func(key, value []byte)) {
	visitArgs(a.args, f)
}

// All returns an iterator over args in the order keys were first seen.
func (a *Args) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i := range a.args {
			if !yield(string(a.args[i].key), string(a.args[i].value)) {
				return
			}
		}
	}
}

// Keys returns arg keys in the order they were first seen.
func (a *Args) Keys() []string {
	keys := make([]string, 0, len(a.args))
	for i := range a.args {
		keys = append(keys, string(a.args[i].key))
	}
	return keys
}

// Len returns the number of query args.
func (a *Args) Len() int {
	return len(a.args)
}

// Parse parses the given string containing query args.
func (a *Args) Parse(s string) {
	a.buf = append(a.buf[:0], s...)
	a.ParseBytes(a.buf)
}

// ParseBytes parses the given b containing query args.
//
// Fields are separated by '&'. A field is split into key and value on its
// first '='; a field without '=' gets an empty value. Empty fields are
// skipped.
func (a *Args) ParseBytes(b []byte) {
	a.parseBytes(b, true)
}

// parseBytes splits b into fields. Keys and values are copied as is
// when decode is false.
func (a *Args) parseBytes(b []byte, decode bool) {
	a.Reset()

	var s argsScanner
	s.b = b
	s.raw = !decode

	kv := &a.bufKV
	for s.next(kv) {
		if len(kv.key) > 0 || len(kv.value) > 0 {
			a.args = setArg(a.args, kv.key, kv.value)
		}
	}
}

// String returns string representation of query args.
func (a *Args) String() string {
	return string(a.QueryString())
}

// QueryString returns query string for the args.
//
// The returned value is valid until the next call to Args methods.
func (a *Args) QueryString() []byte {
	a.buf = a.AppendBytes(a.buf[:0])
	return a.buf
}

// AppendBytes appends query string to dst and returns the extended dst.
func (a *Args) AppendBytes(dst []byte) []byte {
	for i, n := 0, len(a.args); i < n; i++ {
		kv := &a.args[i]
		dst = appendQuotedArg(dst, kv.key)
		if len(kv.value) > 0 {
			dst = append(dst, '=')
			dst = appendQuotedArg(dst, kv.value)
		}
		if i+1 < n {
			dst = append(dst, '&')
		}
	}
	return dst
}

// WriteTo writes query string to w.
//
// WriteTo implements io.WriterTo interface.
func (a *Args) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.QueryString())
	return int64(n), err
}

// Del deletes argument with the given key from query args.
func (a *Args) Del(key string) {
	a.args = delArg(a.args, s2b(key))
}

// Set sets 'key=value' argument.
func (a *Args) Set(key, value string) {
	a.bufKV.key = append(a.bufKV.key[:0], key...)
	a.bufKV.value = append(a.bufKV.value[:0], value...)
	a.SetBytesKV(a.bufKV.key, a.bufKV.value)
}

// SetBytesKV sets 'key=value' argument.
func (a *Args) SetBytesKV(key, value []byte) {
	a.args = setArg(a.args, key, value)
}

// Peek returns query arg value for the given key.
//
// Returned value is valid until the next Args call.
func (a *Args) Peek(key string) []byte {
	return peekArgStr(a.args, key)
}

// Get returns query arg value for the given key or an empty string.
func (a *Args) Get(key string) string {
	return string(a.Peek(key))
}

// Has returns true if the given key exists in Args.
func (a *Args) Has(key string) bool {
	return hasArg(a.args, s2b(key))
}

// ErrNoArgValue is returned when Args value with the given key is missing.
var ErrNoArgValue = errors.New("no Args value for the given key")

// GetUint returns uint value for the given key.
func (a *Args) GetUint(key string) (int, error) {
	value := a.Peek(key)
	if len(value) == 0 {
		return -1, ErrNoArgValue
	}
	return ParseUint(value)
}

func visitArgs(args []argsKV, f func(k, v []byte)) {
	for i, n := 0, len(args); i < n; i++ {
		kv := &args[i]
		f(kv.key, kv.value)
	}
}

func copyArgs(dst, src []argsKV) []argsKV {
	if cap(dst) < len(src) {
		tmp := make([]argsKV, len(src))
		copy(tmp, dst)
		dst = tmp
	}
	n := len(src)
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dstKV := &dst[i]
		srcKV := &src[i]
		dstKV.key = append(dstKV.key[:0], srcKV.key...)
		dstKV.value = append(dstKV.value[:0], srcKV.value...)
	}
	return dst
}

func delArg(args []argsKV, key []byte) []argsKV {
	for i, n := 0, len(args); i < n; i++ {
		kv := &args[i]
		if bytes.Equal(kv.key, key) {
			tmp := *kv
			copy(args[i:], args[i+1:])
			args[n-1] = tmp
			return args[:n-1]
		}
	}
	return args
}

func setArg(h []argsKV, key, value []byte) []argsKV {
	for i := range h {
		kv := &h[i]
		if bytes.Equal(kv.key, key) {
			kv.value = append(kv.value[:0], value...)
			return h
		}
	}
	return appendArg(h, key, value)
}

func appendArg(args []argsKV, key, value []byte) []argsKV {
	var kv *argsKV
	args, kv = allocArg(args)
	kv.key = append(kv.key[:0], key...)
	kv.value = append(kv.value[:0], value...)
	return args
}

func allocArg(h []argsKV) ([]argsKV, *argsKV) {
	n := len(h)
	if cap(h) > n {
		h = h[:n+1]
	} else {
		h = append(h, argsKV{})
	}
	return h, &h[n]
}

func hasArg(h []argsKV, k []byte) bool {
	for i, n := 0, len(h); i < n; i++ {
		kv := &h[i]
		if bytes.Equal(kv.key, k) {
			return true
		}
	}
	return false
}

func peekArgStr(h []argsKV, k string) []byte {
	for i, n := 0, len(h); i < n; i++ {
		kv := &h[i]
		if string(kv.key) == k {
			return kv.value
		}
	}
	return nil
}

type argsScanner struct {
	b   []byte
	raw bool
}

func (s *argsScanner) decode(dst, src []byte) []byte {
	if s.raw {
		return append(dst[:0], src...)
	}
	return decodeArg(dst, src, true)
}

func (s *argsScanner) next(kv *argsKV) bool {
	if len(s.b) == 0 {
		return false
	}

	isKey := true
	k := 0
	for i, c := range s.b {
		switch c {
		case '=':
			if isKey {
				isKey = false
				kv.key = s.decode(kv.key, s.b[:i])
				k = i + 1
			}
		case '&':
			if isKey {
				kv.key = s.decode(kv.key, s.b[:i])
				kv.value = kv.value[:0]
			} else {
				kv.value = s.decode(kv.value, s.b[k:i])
			}
			s.b = s.b[i+1:]
			return true
		}
	}

	if isKey {
		kv.key = s.decode(kv.key, s.b)
		kv.value = kv.value[:0]
	} else {
		kv.value = s.decode(kv.value, s.b[k:])
	}
	s.b = s.b[len(s.b):]
	return true
}
