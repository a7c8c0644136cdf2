package license

import "errors"

// Sentinel errors separating caller faults and collaborator failures from
// ordinary license decisions. Decisions (not found, inactive, mismatch,
// expired, bad code) are returned as values, never as errors.
var (
	// ErrInput marks an empty or malformed key/device id. The caller is at
	// fault; no store access is attempted.
	ErrInput = errors.New("invalid input")

	// ErrNotFound is returned by Store implementations when no record
	// exists for a key.
	ErrNotFound = errors.New("license not found")

	// ErrStoreUnavailable wraps a Store failure. It must never be coerced
	// into an "invalid license" decision: a storage outage is not a
	// revocation.
	ErrStoreUnavailable = errors.New("license store unavailable")
)

// Reason is the machine-readable explanation attached to a denied
// decision.
type Reason string

const (
	ReasonNotFound        Reason = "not_found"
	ReasonInactive        Reason = "inactive"
	ReasonDeviceMismatch  Reason = "device_mismatch"
	ReasonExpired         Reason = "expired"
	ReasonMalformedRecord Reason = "malformed_record"
	ReasonNotAuthorized   Reason = "not_authorized"
	ReasonInvalidCode     Reason = "invalid_code"
)
