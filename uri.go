package neonhttp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidURI is returned when a URI or one of its components
// can't be parsed.
var ErrInvalidURI = errors.New("invalid URI")

// URI holds the generic-syntax components of a URI reference.
//
// Scheme and host are lowercased. User, password, path, query and
// fragment are kept percent-decoded and are encoded again by String.
//
// URI is a value: the With* methods return a modified copy and never
// change the receiver, so a URI may be freely copied and shared.
type URI struct {
	scheme   string
	user     string
	password string
	host     string
	port     int
	hasPort  bool
	path     string
	query    string
	fragment string
}

// ParseURI parses the URI reference s.
func ParseURI(s string) (URI, error) {
	var u URI
	rest := s

	if n := schemeEnd(rest); n > 0 {
		u.scheme = lowercaseString(rest[:n])
		rest = rest[n+1:]
	}

	if n := strings.IndexByte(rest, '#'); n >= 0 {
		u.fragment = unescape(rest[n+1:])
		rest = rest[:n]
	}
	if n := strings.IndexByte(rest, '?'); n >= 0 {
		u.query = unescape(rest[n+1:])
		rest = rest[:n]
	}

	if strings.HasPrefix(rest, strSlashSlash) {
		rest = rest[len(strSlashSlash):]
		n := strings.IndexByte(rest, '/')
		if n < 0 {
			n = len(rest)
		}
		if err := u.parseAuthority(rest[:n]); err != nil {
			return URI{}, fmt.Errorf("cannot parse %q: %w", s, err)
		}
		rest = rest[n:]
	}

	u.path = unescape(rest)
	return u, nil
}

// schemeEnd returns the index of the colon terminating the scheme
// or -1 when s doesn't start with a scheme.
func schemeEnd(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return -1
			}
		case c == ':':
			if i == 0 {
				return -1
			}
			return i
		default:
			return -1
		}
	}
	return -1
}

func (u *URI) parseAuthority(a string) error {
	if n := strings.LastIndexByte(a, '@'); n >= 0 {
		userInfo := a[:n]
		a = a[n+1:]
		if m := strings.IndexByte(userInfo, ':'); m >= 0 {
			u.user = unescape(userInfo[:m])
			u.password = unescape(userInfo[m+1:])
		} else {
			u.user = unescape(userInfo)
		}
	}

	var port string
	if strings.HasPrefix(a, "[") {
		n := strings.IndexByte(a, ']')
		if n < 0 {
			return fmt.Errorf("%w: missing ']' in host", ErrInvalidURI)
		}
		u.host = a[:n+1]
		a = a[n+1:]
		if len(a) > 0 {
			if a[0] != ':' {
				return fmt.Errorf("%w: unexpected %q after host", ErrInvalidURI, a)
			}
			port = a[1:]
		}
	} else if n := strings.LastIndexByte(a, ':'); n >= 0 {
		u.host = a[:n]
		port = a[n+1:]
	} else {
		u.host = a
	}
	u.host = lowercaseString(u.host)

	if len(port) > 0 {
		p, err := parsePort(port)
		if err != nil {
			return err
		}
		u.port = p
		u.hasPort = true
	}
	return nil
}

// Scheme returns the lowercased scheme without the trailing colon.
func (u URI) Scheme() string {
	return u.scheme
}

// User returns the decoded user name.
func (u URI) User() string {
	return u.user
}

// Password returns the decoded password.
func (u URI) Password() string {
	return u.password
}

// UserInfo returns 'user:password', ':password', 'user' or an empty
// string depending on which parts are set.
func (u URI) UserInfo() string {
	return string(u.appendUserInfo(nil, false))
}

// Host returns the lowercased host. IP literals keep their brackets.
func (u URI) Host() string {
	return u.host
}

// Port returns the port and whether it is set.
func (u URI) Port() (int, bool) {
	return u.port, u.hasPort
}

// Path returns the decoded path.
func (u URI) Path() string {
	return u.path
}

// Query returns the decoded query string without the leading '?'.
func (u URI) Query() string {
	return u.query
}

// Fragment returns the decoded fragment without the leading '#'.
func (u URI) Fragment() string {
	return u.fragment
}

// Authority returns '[userinfo@]host[:port]'.
//
// An empty string is returned when the host is empty.
func (u URI) Authority() string {
	return string(u.appendAuthority(nil))
}

func (u URI) appendAuthority(dst []byte) []byte {
	if len(u.host) == 0 {
		return dst
	}
	if len(u.user) > 0 || len(u.password) > 0 {
		dst = u.appendUserInfo(dst, true)
		dst = append(dst, '@')
	}
	dst = append(dst, u.host...)
	if u.hasPort {
		dst = append(dst, ':')
		dst = AppendUint(dst, u.port)
	}
	return dst
}

func (u URI) appendUserInfo(dst []byte, escape bool) []byte {
	appendPart := func(dst []byte, s string, class uriCharClass) []byte {
		if escape {
			return appendEscaped(dst, s, class)
		}
		return append(dst, s...)
	}
	if len(u.user) > 0 {
		dst = appendPart(dst, u.user, classUserInfo)
	}
	if len(u.password) > 0 {
		dst = append(dst, ':')
		dst = appendPart(dst, u.password, classPassword)
	}
	return dst
}

// QueryArgs parses the query into ordered fields.
//
// The query is already percent-decoded, so keys and values are taken
// as is. '+' is not treated as a space.
//
// Each call returns a new Args instance.
func (u URI) QueryArgs() *Args {
	a := &Args{}
	a.buf = append(a.buf[:0], u.query...)
	a.parseBytes(a.buf, false)
	return a
}

// RequestURI returns the escaped path followed by '?query' if the query
// is not empty.
func (u URI) RequestURI() string {
	dst := appendEscaped(nil, u.path, classPath)
	if len(u.query) > 0 {
		dst = append(dst, '?')
		dst = appendEscaped(dst, u.query, classQuery)
	}
	return b2s(dst)
}

// AppendBytes appends the URI to dst and returns the extended dst.
//
// The result is '[scheme:][//authority]path[?query][#fragment]'. The
// authority and its '//' prefix are present only when the host is set.
// Without a host, a path starting with '//' is prefixed with '/.'.
func (u URI) AppendBytes(dst []byte) []byte {
	if len(u.scheme) > 0 {
		dst = append(dst, u.scheme...)
		dst = append(dst, ':')
	}
	if len(u.host) > 0 {
		dst = append(dst, strSlashSlash...)
		dst = u.appendAuthority(dst)
		if len(u.path) > 0 && u.path[0] != '/' {
			dst = append(dst, '/')
		}
	} else if strings.HasPrefix(u.path, strSlashSlash) {
		// A path starting with '//' would be read back as an authority.
		dst = append(dst, '/', '.')
	}
	dst = appendEscaped(dst, u.path, classPath)
	if len(u.query) > 0 {
		dst = append(dst, '?')
		dst = appendEscaped(dst, u.query, classQuery)
	}
	if len(u.fragment) > 0 {
		dst = append(dst, '#')
		dst = appendEscaped(dst, u.fragment, classFragment)
	}
	return dst
}

// String returns the escaped URI.
func (u URI) String() string {
	return b2s(u.AppendBytes(nil))
}

// WithScheme returns a copy of u with the given scheme.
func (u URI) WithScheme(scheme string) URI {
	u.scheme = lowercaseString(strings.TrimSuffix(scheme, ":"))
	return u
}

// WithUserInfo returns a copy of u with the given user and password.
//
// Pass empty strings to remove the user info.
func (u URI) WithUserInfo(user, password string) URI {
	u.user = user
	u.password = password
	return u
}

// WithHost returns a copy of u with the given host.
//
// An empty host removes the authority from the string form.
func (u URI) WithHost(host string) URI {
	u.host = lowercaseString(host)
	return u
}

// WithPort returns a copy of u with the given port.
func (u URI) WithPort(port int) (URI, error) {
	if port < 0 || port > 65535 {
		return u, fmt.Errorf("%w: port %d out of range", ErrInvalidURI, port)
	}
	u.port = port
	u.hasPort = true
	return u, nil
}

// WithoutPort returns a copy of u without a port.
func (u URI) WithoutPort() URI {
	u.port = 0
	u.hasPort = false
	return u
}

// WithPath returns a copy of u with the given decoded path.
func (u URI) WithPath(path string) URI {
	u.path = path
	return u
}

// WithQuery returns a copy of u with the given decoded query.
// A leading '?' is dropped.
func (u URI) WithQuery(query string) URI {
	u.query = strings.TrimPrefix(query, "?")
	return u
}

// WithFragment returns a copy of u with the given decoded fragment.
// A leading '#' is dropped.
func (u URI) WithFragment(fragment string) URI {
	u.fragment = strings.TrimPrefix(fragment, "#")
	return u
}
