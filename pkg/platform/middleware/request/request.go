// Package request provides middleware that captures request-scoped values
// (request ID and a single "now") for services and logs.
package request

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"cnpjd/pkg/requestcontext"
)

// Context copies chi's request ID and the request start time into
// requestcontext. It must run after chimw.RequestID.
func Context(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := chimw.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
			w.Header().Set(chimw.RequestIDHeader, reqID)
		}
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
