// Package neonhttpadaptor provides helper functions for serving
// neonhttp request handlers from net/http servers.
package neonhttpadaptor

import (
	"errors"
	"net/http"

	"github.com/noxx-digital/neonhttp"
	"go.uber.org/multierr"
)

// Handler handles a request by filling resp.
//
// The response is sent after the handler returns. A returned error turns
// into a 500 response unless part of the response was already written.
type Handler func(req *neonhttp.Request, resp *neonhttp.Response) error

// NewHandler wraps h into a net/http handler.
//
// cfg controls how requests and responses are built; DefaultConfig is
// used when it is nil. Both messages are closed after every call.
func NewHandler(cfg *neonhttp.Config, h Handler) http.Handler {
	if cfg == nil {
		cfg = neonhttp.DefaultConfig()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := cfg.LoggerOrDefault()

		req, err := cfg.NewRequest(NewRequestContext(r))
		if err != nil {
			logger.Printf("cannot build request %s %q: %v", r.Method, r.RequestURI, err)
			http.Error(w, neonhttp.StatusMessage(requestErrorStatus(err)), requestErrorStatus(err))
			return
		}

		sink := NewSink(w)
		resp, err := cfg.NewResponse(sink)
		if err != nil {
			logger.Printf("cannot build response for %s %q: %v", req.Method(), req.Target(), err)
			http.Error(w, neonhttp.StatusMessage(neonhttp.StatusInternalServerError), neonhttp.StatusInternalServerError)
			_ = req.Close()
			return
		}
		defer func() {
			if err := multierr.Combine(req.Close(), resp.Close()); err != nil {
				logger.Printf("cannot close messages of %s %q: %v", req.Method(), req.Target(), err)
			}
		}()

		if err := h(req, resp); err != nil {
			logger.Printf("error when serving %s %q: %v", req.Method(), req.Target(), err)
			if !sink.Committed() {
				sink.Reset()
				http.Error(w, neonhttp.StatusMessage(neonhttp.StatusInternalServerError), neonhttp.StatusInternalServerError)
			}
			return
		}

		if err := resp.Send(); err != nil {
			logger.Printf("cannot send response to %s %q: %v", req.Method(), req.Target(), err)
			if !sink.Committed() {
				sink.Reset()
				http.Error(w, neonhttp.StatusMessage(neonhttp.StatusInternalServerError), neonhttp.StatusInternalServerError)
			}
			return
		}
		sink.Flush()
	})
}

func requestErrorStatus(err error) int {
	switch {
	case errors.Is(err, neonhttp.ErrBodyTooLarge):
		return neonhttp.StatusRequestEntityTooLarge
	case errors.Is(err, neonhttp.ErrInvalidURI):
		return neonhttp.StatusBadRequest
	case errors.Is(err, neonhttp.ErrArgument):
		return neonhttp.StatusInternalServerError
	}
	return neonhttp.StatusBadRequest
}
