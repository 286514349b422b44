package request

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"cnpjd/pkg/requestcontext"
)

func TestContext(t *testing.T) {
	var (
		gotID   string
		gotTime time.Time
	)
	r := chi.NewRouter()
	r.Use(chimw.RequestID, Context)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		gotID = requestcontext.RequestID(r.Context())
		gotTime = requestcontext.Now(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	before := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimw.RequestIDHeader, "incoming-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "incoming-id", gotID)
	assert.Equal(t, "incoming-id", rec.Header().Get(chimw.RequestIDHeader))
	assert.False(t, gotTime.Before(before))
}
