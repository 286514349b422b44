package testutil

import (
	"net/http"
	"time"

	"cnpjd/pkg/requestcontext"
)

// WithRequestID attaches a request ID the way the request middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithRequestTime pins the request-scoped clock so handlers produce
// deterministic timestamps.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
