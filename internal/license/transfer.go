package license

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TransferDecision is the outcome of a Transfer or Reset.
type TransferDecision struct {
	Success bool
	Reason  Reason
}

// Transfer moves the binding of key from currentDeviceID to newDeviceID.
// The caller proves possession of the current seat with the code derived
// from (key, currentDeviceID). Any failing check leaves the record
// untouched.
func (e *Engine) Transfer(ctx context.Context, key, currentDeviceID, newDeviceID, code string, now time.Time) (TransferDecision, error) {
	canonical := CanonicalKey(key)
	current := strings.TrimSpace(currentDeviceID)
	next := strings.TrimSpace(newDeviceID)
	if canonical == "" {
		return TransferDecision{}, fmt.Errorf("%w: license key is empty", ErrInput)
	}
	if current == "" || next == "" {
		return TransferDecision{}, fmt.Errorf("%w: device id is empty", ErrInput)
	}
	if strings.TrimSpace(code) == "" {
		return TransferDecision{}, fmt.Errorf("%w: transfer code is empty", ErrInput)
	}

	unlock := e.keys.Lock(canonical)
	defer unlock()

	rec, err := e.store.Get(ctx, canonical)
	if errors.Is(err, ErrNotFound) {
		return e.refuse(ctx, canonical, "transfer", ReasonNotFound), nil
	}
	if err != nil {
		return TransferDecision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Inactive records have no binding semantics; nothing may alter them.
	if !rec.Active {
		return e.refuse(ctx, canonical, "transfer", ReasonInactive), nil
	}

	if rec.BoundDeviceID != current {
		return e.refuse(ctx, canonical, "transfer", ReasonNotAuthorized), nil
	}

	if !codeMatches(code, GenerateCode(canonical, current)) {
		return e.refuse(ctx, canonical, "transfer", ReasonInvalidCode), nil
	}

	updated := rec.Clone()
	updated.BoundDeviceID = next
	updated.DeviceInfo = refreshDeviceInfo(nil, now)

	if err := e.store.Put(ctx, canonical, updated); err != nil {
		return TransferDecision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.logger.InfoContext(ctx, "seat transferred",
		slog.String("license_key", canonical),
		slog.String("from_device", current),
		slog.String("to_device", next),
	)
	if e.metrics != nil {
		e.metrics.recordTransfer(ctx, "transfer", true, "")
	}
	return TransferDecision{Success: true}, nil
}

// Reset clears the binding of key entirely, leaving the record unbound
// and claimable by the next successful verification. It is an
// administrative override: the caller does not need to hold the current
// seat, only the code derived from (key, AdminPrincipal).
func (e *Engine) Reset(ctx context.Context, key, code string, now time.Time) (TransferDecision, error) {
	canonical := CanonicalKey(key)
	if canonical == "" {
		return TransferDecision{}, fmt.Errorf("%w: license key is empty", ErrInput)
	}
	if strings.TrimSpace(code) == "" {
		return TransferDecision{}, fmt.Errorf("%w: reset code is empty", ErrInput)
	}

	unlock := e.keys.Lock(canonical)
	defer unlock()

	rec, err := e.store.Get(ctx, canonical)
	if errors.Is(err, ErrNotFound) {
		return e.refuse(ctx, canonical, "reset", ReasonNotFound), nil
	}
	if err != nil {
		return TransferDecision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !rec.Active {
		return e.refuse(ctx, canonical, "reset", ReasonInactive), nil
	}

	if !codeMatches(code, GenerateCode(canonical, AdminPrincipal)) {
		return e.refuse(ctx, canonical, "reset", ReasonInvalidCode), nil
	}

	updated := rec.Clone()
	updated.BoundDeviceID = ""
	updated.DeviceInfo = nil

	if err := e.store.Put(ctx, canonical, updated); err != nil {
		return TransferDecision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.logger.InfoContext(ctx, "seat reset",
		slog.String("license_key", canonical),
	)
	if e.metrics != nil {
		e.metrics.recordTransfer(ctx, "reset", true, "")
	}
	return TransferDecision{Success: true}, nil
}

func (e *Engine) refuse(ctx context.Context, key, op string, reason Reason) TransferDecision {
	e.logger.WarnContext(ctx, "seat change refused",
		slog.String("license_key", key),
		slog.String("operation", op),
		slog.String("reason", string(reason)),
	)
	if e.metrics != nil {
		e.metrics.recordTransfer(ctx, op, false, reason)
	}
	return TransferDecision{Success: false, Reason: reason}
}

// codeMatches compares codes in constant time. The codes are not secrets
// in the cryptographic sense, but there is no reason to leak match length
// through timing either.
func codeMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.ToUpper(strings.TrimSpace(got))), []byte(want)) == 1
}
