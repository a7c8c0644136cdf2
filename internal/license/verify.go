package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Store is the durable key-to-record mapping the engines decide against.
// Implementations must return ErrNotFound from Get when no record exists,
// must not reorder writes to the same key, and must persist each Put
// all-or-nothing.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, key string, rec Record) error
}

// Decision is the outcome of a verification. Valid carries the granted
// feature set and expiry; a denied decision carries the Reason instead.
type Decision struct {
	Valid      bool
	Reason     Reason
	Features   []string
	ExpiresAt  *time.Time
	DeviceInfo *DeviceInfo
}

// Engine evaluates verification, transfer, and reset requests against a
// Store. It is safe for concurrent use; requests for the same key are
// serialized internally, requests for different keys are not.
type Engine struct {
	store   Store
	keys    *keyMutex
	logger  *slog.Logger
	metrics *Metrics
}

// NewEngine creates an engine backed by the given store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		keys:   newKeyMutex(),
		logger: logger.With(slog.String("component", "license_engine")),
	}
}

// SetMetrics attaches decision counters. A nil-metrics engine records
// nothing.
func (e *Engine) SetMetrics(m *Metrics) {
	e.metrics = m
}

// Verify decides whether key is valid, active, unexpired, and bound (or
// bindable) to deviceID at instant now. The first matching denial wins;
// there are no partial results. A valid call against an unbound record
// claims the seat for deviceID; a valid call from the bound device only
// refreshes DeviceInfo.LastActive.
//
// meta optionally describes the calling device and is stored verbatim on
// claim; it never affects the decision.
func (e *Engine) Verify(ctx context.Context, key, deviceID string, meta *DeviceInfo, now time.Time) (Decision, error) {
	canonical := CanonicalKey(key)
	device := strings.TrimSpace(deviceID)
	if canonical == "" {
		return Decision{}, fmt.Errorf("%w: license key is empty", ErrInput)
	}
	if device == "" {
		return Decision{}, fmt.Errorf("%w: device id is empty", ErrInput)
	}

	unlock := e.keys.Lock(canonical)
	defer unlock()

	rec, err := e.store.Get(ctx, canonical)
	if errors.Is(err, ErrNotFound) {
		return e.deny(ctx, canonical, ReasonNotFound), nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !rec.Active {
		return e.deny(ctx, canonical, ReasonInactive), nil
	}

	if rec.IsBound() && rec.BoundDeviceID != device {
		return e.deny(ctx, canonical, ReasonDeviceMismatch), nil
	}

	expiry, hasExpiry, parseErr := rec.ExpiryTime()
	if parseErr != nil {
		// Corrupt state, not a caller problem. Surfaced with its own
		// reason so operators can tell it apart from a plain denial.
		e.logger.ErrorContext(ctx, "stored expiry timestamp is malformed",
			slog.String("license_key", canonical),
			slog.String("expires_at", rec.ExpiresAt),
			slog.String("error", parseErr.Error()),
		)
		return e.deny(ctx, canonical, ReasonMalformedRecord), nil
	}
	// Expiry is exclusive of the boundary instant: valid at expiry,
	// invalid strictly after it.
	if hasExpiry && now.After(expiry) {
		return e.deny(ctx, canonical, ReasonExpired), nil
	}

	updated := rec.Clone()
	if !rec.IsBound() {
		updated.BoundDeviceID = device
		updated.DeviceInfo = refreshDeviceInfo(meta, now)
		e.logger.InfoContext(ctx, "seat claimed",
			slog.String("license_key", canonical),
			slog.String("device_id", device),
		)
	} else {
		updated.DeviceInfo = touchDeviceInfo(updated.DeviceInfo, now)
	}

	if err := e.store.Put(ctx, canonical, updated); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if e.metrics != nil {
		e.metrics.recordVerify(ctx, true, "")
	}

	decision := Decision{
		Valid:      true,
		Features:   updated.Features,
		DeviceInfo: updated.DeviceInfo,
	}
	if hasExpiry {
		decision.ExpiresAt = &expiry
	}
	return decision, nil
}

func (e *Engine) deny(ctx context.Context, key string, reason Reason) Decision {
	e.logger.InfoContext(ctx, "verification denied",
		slog.String("license_key", key),
		slog.String("reason", string(reason)),
	)
	if e.metrics != nil {
		e.metrics.recordVerify(ctx, false, reason)
	}
	return Decision{Valid: false, Reason: reason}
}

// refreshDeviceInfo builds the DeviceInfo stored on claim or rebind.
func refreshDeviceInfo(meta *DeviceInfo, now time.Time) *DeviceInfo {
	info := DeviceInfo{LastActive: now}
	if meta != nil {
		info.Platform = meta.Platform
		info.Browser = meta.Browser
	}
	return &info
}

// touchDeviceInfo updates only the last-active timestamp on an existing
// binding.
func touchDeviceInfo(info *DeviceInfo, now time.Time) *DeviceInfo {
	if info == nil {
		return &DeviceInfo{LastActive: now}
	}
	updated := *info
	updated.LastActive = now
	return &updated
}
