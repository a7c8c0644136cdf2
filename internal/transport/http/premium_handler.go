package http

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	licenseErrors "qtxlicense/internal/errors"
	"qtxlicense/internal/infrastructure"
	"qtxlicense/internal/license"
	"qtxlicense/internal/services"
)

// PremiumHandler gates feature endpoints behind a license verification.
type PremiumHandler struct {
	service services.LicenseService
	logger  *slog.Logger
}

// NewPremiumHandler creates a new premium feature handler.
func NewPremiumHandler(service services.LicenseService, logger *slog.Logger) *PremiumHandler {
	return &PremiumHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "premium")),
	}
}

// Routes returns a chi router for the premium endpoints.
func (h *PremiumHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/feature", h.Feature)
	return r
}

type premiumFeatureRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
	DeviceID   string `json:"device_id" validate:"required"`
	Feature    string `json:"feature" validate:"required"`
}

func (p *premiumFeatureRequest) Bind(r *http.Request) error {
	return validate.Struct(p)
}

type premiumFeatureResponse struct {
	Granted   bool      `json:"granted"`
	Feature   string    `json:"feature"`
	Message   string    `json:"message"`
	TraceID   string    `json:"trace_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Feature handles POST /api/premium/feature. Access requires a valid
// license whose feature list contains the requested feature.
func (h *PremiumHandler) Feature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &premiumFeatureRequest{}
	if err := render.Bind(r, data); err != nil {
		problem := licenseErrors.InvalidRequest(err.Error(), r.URL.Path).
			WithExtension("trace_id", infrastructure.GetTraceID(ctx))
		render.Render(w, r, problem)
		return
	}

	verification, err := h.service.Verify(ctx, &services.VerifyRequest{
		LicenseKey: data.LicenseKey,
		DeviceID:   data.DeviceID,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := &premiumFeatureResponse{
		Feature:   data.Feature,
		TraceID:   infrastructure.GetTraceID(ctx),
		Timestamp: verification.Timestamp,
	}

	switch {
	case !verification.Valid:
		resp.Message = verification.Message
		render.Status(r, http.StatusForbidden)
	case !slices.Contains(verification.Features, data.Feature):
		resp.Message = "Feature not included in this license"
		render.Status(r, http.StatusForbidden)
	default:
		resp.Granted = true
		resp.Message = "Feature access granted"
	}

	render.JSON(w, r, resp)
}

func (h *PremiumHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var problem *licenseErrors.ProblemDetails
	switch {
	case errors.Is(err, license.ErrInput):
		problem = licenseErrors.InvalidRequest(err.Error(), r.URL.Path)
	case errors.Is(err, license.ErrStoreUnavailable):
		problem = licenseErrors.StoreUnavailable(r.URL.Path)
	default:
		h.logger.ErrorContext(ctx, "premium feature check failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		problem = licenseErrors.Internal(r.URL.Path)
	}

	render.Render(w, r, problem.WithExtension("trace_id", infrastructure.GetTraceID(ctx)))
}
