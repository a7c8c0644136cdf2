// Package services contains the business layer between the HTTP
// transport and the license engine. It shapes engine decisions into
// response payloads carrying trace ids and timestamps.
package services

import (
	"context"
	"log/slog"
	"time"

	"qtxlicense/internal/infrastructure"
	"qtxlicense/internal/license"
)

// LicenseService provides the license operations exposed over HTTP.
type LicenseService interface {
	Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error)
	Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error)
	Reset(ctx context.Context, req *ResetRequest) (*TransferResponse, error)
}

// VerifyRequest carries a license verification attempt from a device.
type VerifyRequest struct {
	LicenseKey string              `json:"license_key" validate:"required"`
	DeviceID   string              `json:"device_id" validate:"required"`
	DeviceInfo *license.DeviceInfo `json:"device_info,omitempty"`
}

// VerifyResponse is the outcome of a verification attempt.
type VerifyResponse struct {
	Valid      bool                `json:"valid"`
	Reason     license.Reason      `json:"reason,omitempty"`
	Message    string              `json:"message"`
	Features   []string            `json:"features,omitempty"`
	ExpiresAt  *time.Time          `json:"expires_at,omitempty"`
	DeviceInfo *license.DeviceInfo `json:"device_info,omitempty"`
	TraceID    string              `json:"trace_id"`
	Timestamp  time.Time           `json:"timestamp"`
}

// TransferRequest moves a license seat from the current device to a new
// one, authorized by a transfer code.
type TransferRequest struct {
	LicenseKey      string `json:"license_key" validate:"required"`
	CurrentDeviceID string `json:"current_device_id" validate:"required"`
	NewDeviceID     string `json:"new_device_id" validate:"required"`
	TransferCode    string `json:"transfer_code" validate:"required"`
}

// ResetRequest clears a license binding, authorized by an admin code.
type ResetRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
	ResetCode  string `json:"reset_code" validate:"required"`
}

// TransferResponse is the outcome of a transfer or reset attempt.
type TransferResponse struct {
	Success   bool           `json:"success"`
	Reason    license.Reason `json:"reason,omitempty"`
	Message   string         `json:"message"`
	TraceID   string         `json:"trace_id"`
	Timestamp time.Time      `json:"timestamp"`
}

// Clock supplies the current time. Swappable in tests.
type Clock func() time.Time

type licenseService struct {
	engine *license.Engine
	logger *slog.Logger
	now    Clock
}

// NewLicenseService creates the license service around the engine.
func NewLicenseService(engine *license.Engine, logger *slog.Logger) LicenseService {
	return &licenseService{
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
}

// NewLicenseServiceWithClock creates the service with a custom clock.
func NewLicenseServiceWithClock(engine *license.Engine, logger *slog.Logger, now Clock) LicenseService {
	return &licenseService{engine: engine, logger: logger, now: now}
}

func (s *licenseService) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	now := s.now().UTC()

	decision, err := s.engine.Verify(ctx, req.LicenseKey, req.DeviceID, req.DeviceInfo, now)
	if err != nil {
		return nil, err
	}

	resp := &VerifyResponse{
		Valid:      decision.Valid,
		Reason:     decision.Reason,
		Message:    verifyMessage(decision),
		Features:   decision.Features,
		ExpiresAt:  decision.ExpiresAt,
		DeviceInfo: decision.DeviceInfo,
		TraceID:    infrastructure.GetTraceID(ctx),
		Timestamp:  now,
	}

	s.logger.InfoContext(ctx, "license verification completed",
		slog.Bool("valid", decision.Valid),
		slog.String("reason", string(decision.Reason)),
	)
	return resp, nil
}

func (s *licenseService) Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error) {
	now := s.now().UTC()

	decision, err := s.engine.Transfer(ctx, req.LicenseKey, req.CurrentDeviceID, req.NewDeviceID, req.TransferCode, now)
	if err != nil {
		return nil, err
	}

	return &TransferResponse{
		Success:   decision.Success,
		Reason:    decision.Reason,
		Message:   transferMessage(decision, "License transferred successfully"),
		TraceID:   infrastructure.GetTraceID(ctx),
		Timestamp: now,
	}, nil
}

func (s *licenseService) Reset(ctx context.Context, req *ResetRequest) (*TransferResponse, error) {
	now := s.now().UTC()

	decision, err := s.engine.Reset(ctx, req.LicenseKey, req.ResetCode, now)
	if err != nil {
		return nil, err
	}

	return &TransferResponse{
		Success:   decision.Success,
		Reason:    decision.Reason,
		Message:   transferMessage(decision, "License binding cleared"),
		TraceID:   infrastructure.GetTraceID(ctx),
		Timestamp: now,
	}, nil
}

func verifyMessage(d license.Decision) string {
	if d.Valid {
		return "License verified successfully"
	}
	switch d.Reason {
	case license.ReasonNotFound:
		return "Invalid license key"
	case license.ReasonInactive:
		return "License is inactive"
	case license.ReasonDeviceMismatch:
		return "License is already active on another device"
	case license.ReasonExpired:
		return "License has expired"
	case license.ReasonMalformedRecord:
		return "License record is malformed, contact support"
	default:
		return "License verification failed"
	}
}

func transferMessage(d license.TransferDecision, success string) string {
	if d.Success {
		return success
	}
	switch d.Reason {
	case license.ReasonNotFound:
		return "Invalid license key"
	case license.ReasonInactive:
		return "License is inactive"
	case license.ReasonNotAuthorized:
		return "Requesting device does not hold this license"
	case license.ReasonInvalidCode:
		return "Invalid authorization code"
	default:
		return "Request refused"
	}
}
