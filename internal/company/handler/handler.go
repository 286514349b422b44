package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cnpjd/internal/company/models"
	id "cnpjd/pkg/domain"
	dErrors "cnpjd/pkg/domain-errors"
	"cnpjd/pkg/platform/httputil"
	"cnpjd/pkg/requestcontext"
)

// Service defines the company operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, cnpj id.CNPJ, legalName, tradeName string) (*models.Company, error)
	RegisterBranch(ctx context.Context, head id.CNPJ, branch int, tradeName string) (*models.Company, error)
	Get(ctx context.Context, cnpj id.CNPJ) (*models.Company, error)
	Lookup(ctx context.Context, cnpjs []id.CNPJ) ([]*models.Company, error)
	ListByRoot(ctx context.Context, root int64) ([]*models.Company, error)
}

// Handler wires company endpoints to the company service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts company endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Post("/", h.HandleRegister)
		r.Get("/", h.HandleListByRoot)
		r.Post("/lookup", h.HandleLookup)
		r.Get("/{cnpj}", h.HandleGet)
		r.Post("/{cnpj}/branches", h.HandleRegisterBranch)
	})
}

// HandleRegister handles POST /companies.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	company, err := h.service.Register(ctx, req.ParsedCNPJ(), req.LegalName, req.TradeName)
	if err != nil {
		h.logFailure(ctx, "company registration failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCompanyResponse(company))
}

// HandleRegisterBranch handles POST /companies/{cnpj}/branches.
func (h *Handler) HandleRegisterBranch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	head, err := cnpjParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterBranchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	company, err := h.service.RegisterBranch(ctx, head, req.Branch, req.TradeName)
	if err != nil {
		h.logFailure(ctx, "branch registration failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCompanyResponse(company))
}

// HandleGet handles GET /companies/{cnpj}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cnpj, err := cnpjParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	company, err := h.service.Get(ctx, cnpj)
	if err != nil {
		h.logFailure(ctx, "company lookup failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCompanyResponse(company))
}

// HandleListByRoot handles GET /companies?root=.
func (h *Handler) HandleListByRoot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("root")
	if raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "root query parameter is required"))
		return
	}
	root, err := strconv.ParseInt(strings.NewReplacer(".", "").Replace(raw), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "root must be numeric"))
		return
	}

	companies, err := h.service.ListByRoot(ctx, root)
	if err != nil {
		h.logFailure(ctx, "company listing failed", requestcontext.RequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCompanyList(companies))
}

// HandleLookup handles POST /companies/lookup.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LookupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	companies, err := h.service.Lookup(ctx, req.ParsedCNPJs())
	if err != nil {
		h.logFailure(ctx, "company batch lookup failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCompanyList(companies))
}

func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestID,
		"error", err,
	)
}

// cnpjParam parses the {cnpj} path segment. A general-form value must have
// its slash percent-encoded.
func cnpjParam(r *http.Request) (id.CNPJ, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "cnpj"))
	if err != nil {
		return id.EmptyCNPJ, dErrors.New(dErrors.CodeBadRequest, "malformed cnpj path segment")
	}
	c, err := id.ParseCNPJ(raw)
	if err != nil {
		return id.EmptyCNPJ, dErrors.Wrap(err, dErrors.CodeValidation, "invalid cnpj")
	}
	return c, nil
}
