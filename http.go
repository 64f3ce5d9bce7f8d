package neonhttp

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// ErrNoSink is returned by Response.Send when the response has no sink.
var ErrNoSink = errors.New("response has no sink")

// Message is the part shared by Request and Response: headers, a body
// stream and the protocol version.
//
// Message exclusively owns its body stream. Close must be called once
// the message is no longer needed.
//
// It is forbidden copying Message instances. Create new instances instead.
//
// It is unsafe modifying/reading Message instance from concurrently
// running goroutines.
type Message struct {
	// Message headers.
	//
	// Copying Header by value is forbidden. Use pointer to Header instead.
	Header Header

	body     *Stream
	protocol string
}

// Protocol returns the protocol version without the 'HTTP/' prefix,
// e.g. "1.1".
func (m *Message) Protocol() string {
	return m.protocol
}

// SetProtocol sets the protocol version. A leading 'HTTP/' is dropped.
func (m *Message) SetProtocol(version string) {
	m.protocol = trimProtocol(version)
}

// HeaderLine returns 'Name: value' for the given header, or an empty
// string if the header is missing.
func (m *Message) HeaderLine(name string) string {
	return m.Header.Line(name)
}

// HeaderLines returns 'Name: value' lines for all headers in order.
func (m *Message) HeaderLines() []string {
	return m.Header.Lines()
}

// Body returns the body stream.
//
// nil is returned after Close.
func (m *Message) Body() *Stream {
	return m.body
}

// SetBody replaces the body stream with s and closes the previous one.
//
// The message takes ownership of s.
func (m *Message) SetBody(s *Stream) error {
	prev := m.body
	m.body = s
	if prev == nil || prev == s {
		return nil
	}
	if err := prev.Close(); err != nil && !errors.Is(err, ErrStreamClosed) {
		return err
	}
	return nil
}

// Close releases the body stream. Calling Close more than once is a no-op.
func (m *Message) Close() error {
	if m.body == nil {
		return nil
	}
	err := m.body.Close()
	m.body = nil
	if errors.Is(err, ErrStreamClosed) {
		return nil
	}
	return err
}

func trimProtocol(version string) string {
	if len(version) >= len(strHTTPSlash) && strings.EqualFold(version[:len(strHTTPSlash)], strHTTPSlash) {
		return version[len(strHTTPSlash):]
	}
	return version
}

// Request represents HTTP request.
//
// It is forbidden copying Request instances. Create new instances instead.
//
// It is unsafe modifying/reading Request instance from concurrently
// running goroutines.
type Request struct {
	Message

	method string
	target string
	uri    URI
}

// NewRequest builds a request from rc using DefaultConfig.
func NewRequest(rc RequestContext) (*Request, error) {
	return DefaultConfig().NewRequest(rc)
}

// NewRequest builds a request from rc.
//
// Headers are copied with their list values normalized, the request-target
// is parsed into the request URI and the body is copied into a new stream
// in chunks of at most ChunkSize bytes. The body stream cursor is left at
// the start.
func (c *Config) NewRequest(rc RequestContext) (*Request, error) {
	target := rc.RequestURI()
	uri, err := ParseURI(target)
	if err != nil {
		return nil, err
	}

	req := &Request{
		method: rc.Method(),
		target: target,
		uri:    uri,
	}
	req.protocol = trimProtocol(rc.Protocol())
	if len(req.protocol) == 0 {
		req.protocol = c.protocol()
	}
	rc.VisitHeaders(req.Header.setRaw)

	s, err := NewStream(c.bodyMode())
	if err != nil {
		return nil, err
	}
	if err = c.readBody(req, s, rc.BodyReader()); err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	if s.IsReadable() {
		if err = s.Rewind(); err != nil {
			return nil, multierr.Append(err, s.Close())
		}
	}
	req.body = s
	return req, nil
}

func (c *Config) readBody(req *Request, s *Stream, r io.Reader) error {
	if r == nil {
		return nil
	}

	encoding := ""
	if c.DecodeRequestBody {
		encoding = strings.ToLower(req.Header.Get(HeaderContentEncoding))
		if !IsSupportedEncoding(encoding) {
			encoding = ""
		}
	}

	if len(encoding) == 0 {
		return copyBody(s, r, c.chunkSize(), c.MaxBodySize)
	}

	zr, err := newDecoder(r, encoding)
	if err != nil {
		c.LoggerOrDefault().Printf("cannot decode %q request body of %s %q: %v", encoding, req.method, req.target, err)
		return err
	}
	err = multierr.Append(copyBody(s, zr, c.chunkSize(), c.MaxBodySize), zr.Close())
	if err != nil {
		c.LoggerOrDefault().Printf("cannot decode %q request body of %s %q: %v", encoding, req.method, req.target, err)
		return err
	}
	req.Header.Del(HeaderContentEncoding)
	req.Header.Del(HeaderContentLength)
	return nil
}

// copyBody copies r into s through WriteChunked.
// maxBodySize limits the copied size when positive.
func copyBody(s *Stream, r io.Reader, chunkSize, maxBodySize int) error {
	buf := make([]byte, chunkSize)
	total := 0
	for {
		n, err := r.Read(buf)
		if n > 0 {
			total += n
			if maxBodySize > 0 && total > maxBodySize {
				return ErrBodyTooLarge
			}
			if _, werr := s.WriteChunked(buf[:n], chunkSize); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Method returns the request method.
func (req *Request) Method() string {
	return req.method
}

// Target returns the request-target as it was received.
func (req *Request) Target() string {
	return req.target
}

// URI returns the request URI parsed from the request-target.
func (req *Request) URI() URI {
	return req.uri
}

// Query returns the query fields of the request URI.
func (req *Request) Query() *Args {
	return req.uri.QueryArgs()
}

// AcceptsEncoding returns true if the Accept-Encoding header allows
// the given content coding.
//
// An explicit entry for the coding takes precedence over '*'. Entries
// with q=0 reject the coding.
func (req *Request) AcceptsEncoding(encoding string) bool {
	wildcard := false
	for _, v := range req.Header.Values(HeaderAcceptEncoding) {
		token, params, _ := strings.Cut(v, ";")
		token = strings.TrimSpace(token)
		switch {
		case strings.EqualFold(token, encoding):
			return qValue(params) > 0
		case token == "*":
			wildcard = qValue(params) > 0
		}
	}
	return wildcard
}

// qValue returns the q parameter found in params, or 1.
func qValue(params string) float64 {
	for len(params) > 0 {
		var p string
		p, params, _ = strings.Cut(params, ";")
		k, v, ok := strings.Cut(p, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 1
		}
		return q
	}
	return 1
}

// PreferredEncoding returns the first of SupportedEncodings accepted by
// the request, or an empty string.
func (req *Request) PreferredEncoding() string {
	for _, enc := range SupportedEncodings {
		if req.AcceptsEncoding(enc) {
			return enc
		}
	}
	return ""
}

// Response represents HTTP response.
//
// The status code starts at 200 and may only move to codes present in
// the response status registry.
//
// It is forbidden copying Response instances. Create new instances instead.
//
// It is unsafe modifying/reading Response instance from concurrently
// running goroutines.
type Response struct {
	Message

	statusCode int
	statusSent bool
	registry   *StatusRegistry
	sink       ResponseSink

	chunkSize     int
	compressLevel int
	logger        Logger
}

// NewResponse returns an empty 200 response using DefaultConfig.
func NewResponse(sink ResponseSink) (*Response, error) {
	return DefaultConfig().NewResponse(sink)
}

// NewResponse returns an empty 200 response writing to sink.
//
// sink may be nil. Status changes aren't signalled then and Send fails.
func (c *Config) NewResponse(sink ResponseSink) (*Response, error) {
	registry, err := c.registry()
	if err != nil {
		return nil, err
	}
	s, err := NewStream(ModeWPlus)
	if err != nil {
		return nil, err
	}
	resp := &Response{
		statusCode:    StatusOK,
		registry:      registry,
		sink:          sink,
		chunkSize:     c.chunkSize(),
		compressLevel: c.compressLevel(),
		logger:        c.LoggerOrDefault(),
	}
	resp.protocol = c.protocol()
	resp.body = s
	return resp, nil
}

// StatusCode returns the response status code.
func (resp *Response) StatusCode() int {
	return resp.statusCode
}

// ReasonPhrase returns the reason phrase of the current status code.
func (resp *Response) ReasonPhrase() string {
	phrase, _ := resp.registry.Phrase(resp.statusCode)
	return phrase
}

// StatusCodes returns a snapshot of the registered status codes.
func (resp *Response) StatusCodes() map[int]string {
	return resp.registry.Codes()
}

// RegisterStatusCode adds a status code to the response registry.
//
// ErrArgument is returned if the code is already registered.
func (resp *Response) RegisterStatusCode(code int, phrase string) error {
	return resp.registry.Register(code, phrase)
}

// SetStatusCode sets the response status code and passes the new status
// line to the sink.
//
// ErrNotRegistered is returned if the code is missing from the registry;
// the status is left unchanged then. A sink failure is returned too,
// but the status has been changed already.
func (resp *Response) SetStatusCode(code int) error {
	phrase, ok := resp.registry.Phrase(code)
	if !ok {
		return fmt.Errorf("%w: status code %d", ErrNotRegistered, code)
	}
	resp.statusCode = code
	if resp.sink == nil {
		return nil
	}
	return resp.writeStatusLine(phrase)
}

func (resp *Response) writeStatusLine(phrase string) error {
	if err := resp.sink.WriteStatusLine(resp.protocol, resp.statusCode, phrase); err != nil {
		resp.logger.Printf("cannot write status line %q: %v", resp.StatusLine(), err)
		return fmt.Errorf("cannot write status line: %w", err)
	}
	resp.statusSent = true
	return nil
}

// StatusLine returns the status line without the trailing CRLF,
// e.g. 'HTTP/1.1 200 OK'.
func (resp *Response) StatusLine() string {
	return string(formatStatusLine(nil, resp.protocol, resp.statusCode, resp.ReasonPhrase()))
}

// Write appends p to the body at the body cursor.
//
// Write implements io.Writer.
func (resp *Response) Write(p []byte) (int, error) {
	if resp.body == nil {
		return 0, ErrStreamClosed
	}
	return resp.body.Write(p)
}

// Send writes the response to its sink.
//
// The status line is written unless SetStatusCode already did. Then every
// header line is written in order, followed by the whole body in chunks.
func (resp *Response) Send() error {
	if resp.sink == nil {
		return ErrNoSink
	}
	if err := resp.Header.Validate(); err != nil {
		return err
	}
	if !resp.statusSent {
		if err := resp.writeStatusLine(resp.ReasonPhrase()); err != nil {
			return err
		}
	}
	for _, line := range resp.Header.Lines() {
		if err := resp.sink.WriteHeaderLine(line); err != nil {
			return fmt.Errorf("cannot write header line: %w", err)
		}
	}

	if resp.body == nil {
		return nil
	}
	if err := resp.body.Rewind(); err != nil {
		return err
	}
	for {
		chunk, err := resp.body.ReadN(resp.chunkSize)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}
		if _, err = resp.sink.Write(chunk); err != nil {
			return fmt.Errorf("cannot write body: %w", err)
		}
	}
}
