package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cnpjd/internal/validation"
	"cnpjd/internal/validation/metrics"
	"cnpjd/pkg/platform/httputil"
	"cnpjd/pkg/requestcontext"
)

// Handler wires the stateless CNPJ endpoints.
type Handler struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a validation handler. metrics may be nil.
func New(logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{logger: logger, metrics: metrics}
}

// Register mounts validation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cnpj/validate", h.HandleValidate)
	r.Post("/cnpj/format", h.HandleFormat)
	r.Post("/cnpj/derive", h.HandleDerive)
}

// HandleValidate handles POST /cnpj/validate requests.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	results := validation.CheckAll(req.Values)
	invalid := 0
	for _, res := range results {
		h.record(res)
		if !res.Valid {
			invalid++
		}
	}

	h.logger.InfoContext(ctx, "cnpj batch validated",
		"request_id", requestID,
		"count", len(results),
		"invalid", invalid,
	)
	httputil.WriteJSON(w, http.StatusOK, toValidateResponse(results))
}

// HandleFormat handles POST /cnpj/format requests.
func (h *Handler) HandleFormat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FormatRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	formatted, err := validation.Format(req.CNPJ, req.Format)
	if err != nil {
		h.logger.WarnContext(ctx, "cnpj format rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &FormatResponse{CNPJ: formatted})
}

// HandleDerive handles POST /cnpj/derive requests.
func (h *Handler) HandleDerive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DeriveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := validation.Derive(req.Base)
	if err != nil {
		h.logger.WarnContext(ctx, "cnpj derive rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDeriveResponse(c))
}

func (h *Handler) record(res validation.Result) {
	if h.metrics == nil {
		return
	}
	switch {
	case res.Valid:
		h.metrics.IncrementOutcome(metrics.OutcomeValid)
	case res.Reason == validation.ReasonChecksum:
		h.metrics.IncrementOutcome(metrics.OutcomeChecksum)
	default:
		h.metrics.IncrementOutcome(metrics.OutcomeFormat)
	}
}
