package neonhttpadaptor

import (
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/noxx-digital/neonhttp"
)

// RequestContext exposes a net/http request as a neonhttp.RequestContext.
type RequestContext struct {
	r *http.Request
}

var _ neonhttp.RequestContext = (*RequestContext)(nil)

// NewRequestContext wraps r.
//
// The returned context must not be used after the net/http handler
// serving r has returned.
func NewRequestContext(r *http.Request) *RequestContext {
	return &RequestContext{r: r}
}

// Protocol implements neonhttp.RequestContext.
func (rc *RequestContext) Protocol() string {
	return rc.r.Proto
}

// Method implements neonhttp.RequestContext.
func (rc *RequestContext) Method() string {
	return rc.r.Method
}

// RequestURI implements neonhttp.RequestContext.
//
// Client requests have no RequestURI, so it is rebuilt from the URL then.
func (rc *RequestContext) RequestURI() string {
	if len(rc.r.RequestURI) > 0 {
		return rc.r.RequestURI
	}
	if rc.r.URL == nil {
		return "/"
	}
	return rc.r.URL.RequestURI()
}

// VisitHeaders implements neonhttp.RequestContext.
//
// net/http keeps no header order, so Host goes first and the remaining
// headers follow sorted by name. Repeated headers are joined with ', ',
// except Cookie, which is joined with '; '.
func (rc *RequestContext) VisitHeaders(f func(name, value string)) {
	if len(rc.r.Host) > 0 {
		f(neonhttp.HeaderHost, rc.r.Host)
	}
	keys := make([]string, 0, len(rc.r.Header))
	for k := range rc.r.Header {
		if k == neonhttp.HeaderHost {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sep := ", "
		if k == "Cookie" {
			sep = "; "
		}
		f(k, strings.Join(rc.r.Header[k], sep))
	}
}

// BodyReader implements neonhttp.RequestContext.
func (rc *RequestContext) BodyReader() io.Reader {
	if rc.r.Body == nil || rc.r.Body == http.NoBody {
		return nil
	}
	return rc.r.Body
}
