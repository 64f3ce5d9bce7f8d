package neonhttp

var (
	defaultProtocol = "1.1"
	defaultBodyMode = ModeWPlus
)

var (
	strColonSpace = []byte(": ")
	strCRLF       = []byte("\r\n")
	strCommaSpace = []byte(", ")
	strHTTPSlash  = "HTTP/"
	strSlashSlash = "//"
	strSetCookie  = []byte(HeaderSetCookie)
)

// Header names used by the message model.
const (
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentLength   = "Content-Length"
	HeaderContentType     = "Content-Type"
	HeaderHost            = "Host"
	HeaderSetCookie       = "Set-Cookie"
	HeaderVary            = "Vary"
)

// Content codings understood by CompressBody and request body decoding.
const (
	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
	EncodingBrotli  = "br"
	EncodingZstd    = "zstd"
)

// HTTP methods were copied from net/http.
const (
	MethodGet     = "GET"     // RFC 7231, 4.3.1
	MethodHead    = "HEAD"    // RFC 7231, 4.3.2
	MethodPost    = "POST"    // RFC 7231, 4.3.3
	MethodPut     = "PUT"     // RFC 7231, 4.3.4
	MethodPatch   = "PATCH"   // RFC 5789
	MethodDelete  = "DELETE"  // RFC 7231, 4.3.5
	MethodConnect = "CONNECT" // RFC 7231, 4.3.6
	MethodOptions = "OPTIONS" // RFC 7231, 4.3.7
	MethodTrace   = "TRACE"   // RFC 7231, 4.3.8
)
