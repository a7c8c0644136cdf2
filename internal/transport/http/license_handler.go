// Package http contains the HTTP transport layer: chi handlers binding
// request payloads, invoking the service layer, and rendering responses
// or RFC 7807 problems.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	licenseErrors "qtxlicense/internal/errors"
	"qtxlicense/internal/infrastructure"
	"qtxlicense/internal/license"
	"qtxlicense/internal/services"
)

var validate = validator.New()

// LicenseHandler handles license verification, transfer, and reset.
type LicenseHandler struct {
	service services.LicenseService
	logger  *slog.Logger
}

// NewLicenseHandler creates a new license handler.
func NewLicenseHandler(service services.LicenseService, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "license")),
	}
}

// Routes returns a chi router for the license endpoints.
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/verify", h.Verify)
	r.Post("/transfer", h.Transfer)
	r.Post("/reset", h.Reset)
	return r
}

// verifyRequest wraps the service payload for render binding.
type verifyRequest struct {
	*services.VerifyRequest
}

func (v *verifyRequest) Bind(r *http.Request) error {
	if v.VerifyRequest == nil {
		return errors.New("missing request body")
	}
	return validate.Struct(v.VerifyRequest)
}

type transferRequest struct {
	*services.TransferRequest
}

func (t *transferRequest) Bind(r *http.Request) error {
	if t.TransferRequest == nil {
		return errors.New("missing request body")
	}
	return validate.Struct(t.TransferRequest)
}

type resetRequest struct {
	*services.ResetRequest
}

func (rr *resetRequest) Bind(r *http.Request) error {
	if rr.ResetRequest == nil {
		return errors.New("missing request body")
	}
	return validate.Struct(rr.ResetRequest)
}

// Verify handles POST /api/license/verify.
func (h *LicenseHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &verifyRequest{}
	if err := render.Bind(r, data); err != nil {
		h.badRequest(w, r, err)
		return
	}

	resp, err := h.service.Verify(ctx, data.VerifyRequest)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if !resp.Valid {
		render.Status(r, http.StatusForbidden)
	}
	render.JSON(w, r, resp)
}

// Transfer handles POST /api/license/transfer.
func (h *LicenseHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &transferRequest{}
	if err := render.Bind(r, data); err != nil {
		h.badRequest(w, r, err)
		return
	}

	resp, err := h.service.Transfer(ctx, data.TransferRequest)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if !resp.Success {
		render.Status(r, http.StatusForbidden)
	}
	render.JSON(w, r, resp)
}

// Reset handles POST /api/license/reset.
func (h *LicenseHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &resetRequest{}
	if err := render.Bind(r, data); err != nil {
		h.badRequest(w, r, err)
		return
	}

	resp, err := h.service.Reset(ctx, data.ResetRequest)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if !resp.Success {
		render.Status(r, http.StatusForbidden)
	}
	render.JSON(w, r, resp)
}

func (h *LicenseHandler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "request binding failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	problem := licenseErrors.InvalidRequest(err.Error(), r.URL.Path).
		WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))
	render.Render(w, r, problem)
}

func (h *LicenseHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	var problem *licenseErrors.ProblemDetails
	switch {
	case errors.Is(err, license.ErrInput):
		problem = licenseErrors.InvalidRequest(err.Error(), r.URL.Path)
	case errors.Is(err, license.ErrStoreUnavailable):
		h.logger.ErrorContext(ctx, "license store unavailable",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		problem = licenseErrors.StoreUnavailable(r.URL.Path)
	default:
		h.logger.ErrorContext(ctx, "license operation failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		problem = licenseErrors.Internal(r.URL.Path)
	}

	render.Render(w, r, problem.WithExtension("trace_id", traceID))
}
