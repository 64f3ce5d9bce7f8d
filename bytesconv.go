package neonhttp

import (
	"errors"
	"fmt"
	"unsafe"
)

const maxIntChars = 18

// AppendUint appends n to dst and returns dst (which may be newly allocated).
func AppendUint(dst []byte, n int) []byte {
	if n < 0 {
		panic("BUG: int must be positive")
	}

	var b [20]byte
	buf := b[:]
	i := len(buf)
	var q int
	for n >= 10 {
		i--
		q = n / 10
		buf[i] = '0' + byte(n-q*10)
		n = q
	}
	i--
	buf[i] = '0' + byte(n)

	dst = append(dst, buf[i:]...)
	return dst
}

// ParseUint parses uint from buf.
func ParseUint(buf []byte) (int, error) {
	v, n, err := parseUintBuf(buf)
	if n != len(buf) {
		return -1, errUnexpectedTrailingChar
	}
	return v, err
}

var (
	errEmptyInt               = errors.New("empty integer")
	errUnexpectedFirstChar    = errors.New("unexpected first char found. Expecting 0-9")
	errUnexpectedTrailingChar = errors.New("unexpected trailing char found. Expecting 0-9")
	errTooLongInt             = errors.New("too long int")
)

func parseUintBuf(b []byte) (int, int, error) {
	n := len(b)
	if n == 0 {
		return -1, 0, errEmptyInt
	}
	v := 0
	for i := 0; i < n; i++ {
		c := b[i]
		k := c - '0'
		if k > 9 {
			if i == 0 {
				return -1, i, errUnexpectedFirstChar
			}
			return v, i, nil
		}
		if i >= maxIntChars {
			return -1, i, errTooLongInt
		}
		v = 10*v + int(k)
	}
	return v, n, nil
}

func hexCharUpper(c byte) byte {
	if c < 10 {
		return '0' + c
	}
	return c - 10 + 'A'
}

var hex2intTable = func() []byte {
	b := make([]byte, 256)
	for i := 0; i < 256; i++ {
		c := byte(0)
		if i >= '0' && i <= '9' {
			c = 1 + byte(i) - '0'
		} else if i >= 'a' && i <= 'f' {
			c = 1 + byte(i) - 'a' + 10
		} else if i >= 'A' && i <= 'F' {
			c = 1 + byte(i) - 'A' + 10
		}
		b[i] = c
	}
	return b
}()

func hexbyte2int(c byte) int {
	return int(hex2intTable[c]) - 1
}

const toLower = 'a' - 'A'

func lowercaseByte(p *byte) {
	c := *p
	if c >= 'A' && c <= 'Z' {
		*p = c + toLower
	}
}

func lowercaseBytes(b []byte) {
	for i, n := 0, len(b); i < n; i++ {
		lowercaseByte(&b[i])
	}
}

// lowercaseString returns s with ASCII letters lowercased.
// s is returned as is when it has no uppercase letters.
func lowercaseString(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			lowercaseBytes(b[i:])
			return b2s(b)
		}
	}
	return s
}

// b2s converts byte slice to a string without memory allocation.
//
// The byte slice must not be modified after the conversion.
func b2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// s2b converts string to a byte slice without memory allocation.
//
// The returned slice must not be modified.
func s2b(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// uriCharClass tells which bytes may appear unescaped in a URI component.
type uriCharClass uint8

const (
	classUserInfo uriCharClass = 1 << iota
	classPassword
	classPath
	classQuery
	classFragment
)

// Bytes allowed by RFC 3986 for each component. Everything else is
// percent-encoded by appendEscaped.
var uriCharTable = func() [256]uriCharClass {
	var t [256]uriCharClass
	set := func(chars string, c uriCharClass) {
		for i := 0; i < len(chars); i++ {
			t[chars[i]] |= c
		}
	}
	const (
		unreserved = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._~"
		subDelims  = "!$&'()*+,;="
	)
	all := classUserInfo | classPassword | classPath | classQuery | classFragment
	set(unreserved, all)
	set(subDelims, all)
	set(":", classPassword|classPath|classQuery|classFragment)
	set("@", classPath|classQuery|classFragment)
	set("/", classPath|classQuery|classFragment)
	set("?", classQuery|classFragment)
	return t
}()

// appendEscaped appends src to dst percent-encoding every byte
// not allowed in the given component class.
func appendEscaped(dst []byte, src string, class uriCharClass) []byte {
	for i := 0; i < len(src); i++ {
		c := src[i]
		if uriCharTable[c]&class != 0 {
			dst = append(dst, c)
		} else {
			dst = append(dst, '%', hexCharUpper(c>>4), hexCharUpper(c&15))
		}
	}
	return dst
}

// appendQuotedArg appends the form-encoded representation of src to dst.
func appendQuotedArg(dst, src []byte) []byte {
	for _, c := range src {
		switch {
		case c == ' ':
			dst = append(dst, '+')
		case uriCharTable[c]&classQuery != 0 && c != '&' && c != '=' && c != '+':
			dst = append(dst, c)
		default:
			dst = append(dst, '%', hexCharUpper(c>>4), hexCharUpper(c&15))
		}
	}
	return dst
}

func decodeArg(dst, src []byte, decodePlus bool) []byte {
	return decodeArgAppend(dst[:0], src, decodePlus)
}

func decodeArgAppend(dst, src []byte, decodePlus bool) []byte {
	for i, n := 0, len(src); i < n; i++ {
		c := src[i]
		if c == '%' {
			if i+2 >= n {
				return append(dst, src[i:]...)
			}
			x1 := hexbyte2int(src[i+1])
			x2 := hexbyte2int(src[i+2])
			if x1 < 0 || x2 < 0 {
				dst = append(dst, c)
			} else {
				dst = append(dst, byte(x1<<4|x2))
				i += 2
			}
		} else if decodePlus && c == '+' {
			dst = append(dst, ' ')
		} else {
			dst = append(dst, c)
		}
	}
	return dst
}

// unescape percent-decodes s without decoding '+'.
func unescape(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			return b2s(decodeArgAppend(nil, s2b(s), false))
		}
	}
	return s
}

func parsePort(s string) (int, error) {
	port, err := ParseUint(s2b(s))
	if err != nil {
		return 0, fmt.Errorf("%w: port %q: %v", ErrInvalidURI, s, err)
	}
	if port > 65535 {
		return 0, fmt.Errorf("%w: port %d out of range", ErrInvalidURI, port)
	}
	return port, nil
}
