package neonhttp

import (
	"bytes"
	"io"
)

// RequestContext supplies the raw data of an incoming request.
//
// It is implemented by the transport which received the request.
type RequestContext interface {
	// Protocol returns the protocol version, e.g. "1.1" or "HTTP/1.1".
	Protocol() string

	// Method returns the request method.
	Method() string

	// RequestURI returns the request-target as received.
	RequestURI() string

	// VisitHeaders calls f for each received header in the order they
	// were received.
	VisitHeaders(f func(name, value string))

	// BodyReader returns the request body. It may return nil for
	// requests without a body.
	BodyReader() io.Reader
}

// ResponseSink accepts a response on its way to the wire.
//
// The status line is written first, then header lines in order, then
// the body through Write.
type ResponseSink interface {
	// WriteStatusLine is called each time the response status changes.
	WriteStatusLine(protocol string, statusCode int, reasonPhrase string) error

	// WriteHeaderLine receives a single 'Name: value' line.
	WriteHeaderLine(line string) error

	io.Writer
}

// RawRequest is a RequestContext holding already received request data.
type RawRequest struct {
	Proto   string
	Verb    string
	URI     string
	Headers [][2]string
	Body    []byte
}

var _ RequestContext = (*RawRequest)(nil)

// Protocol implements RequestContext.
func (r *RawRequest) Protocol() string {
	return r.Proto
}

// Method implements RequestContext.
func (r *RawRequest) Method() string {
	return r.Verb
}

// RequestURI implements RequestContext.
func (r *RawRequest) RequestURI() string {
	return r.URI
}

// VisitHeaders implements RequestContext.
func (r *RawRequest) VisitHeaders(f func(name, value string)) {
	for _, kv := range r.Headers {
		f(kv[0], kv[1])
	}
}

// BodyReader implements RequestContext.
func (r *RawRequest) BodyReader() io.Reader {
	if len(r.Body) == 0 {
		return nil
	}
	return bytes.NewReader(r.Body)
}
