package license

import (
	"strings"
	"time"
)

// Expiry timestamp layouts accepted in stored records. RFC 3339 is the
// canonical form; the bare layouts cover records provisioned by older
// tooling that wrote naive ISO 8601 timestamps.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DeviceInfo holds descriptive metadata about the device currently bound
// to a license. It never affects the verification decision.
type DeviceInfo struct {
	Platform   string    `json:"platform,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	LastActive time.Time `json:"last_active"`
}

// Record is the durable state of a single license key.
//
// Key is immutable once the record exists. BoundDeviceID changes only
// through a successful Verify first-claim, Transfer, or Reset - never as
// a side effect of a failed verification.
type Record struct {
	Key           string      `json:"license_key"`
	Active        bool        `json:"active"`
	ExpiresAt     string      `json:"expires_at,omitempty"`
	BoundDeviceID string      `json:"bound_device_id,omitempty"`
	DeviceInfo    *DeviceInfo `json:"device_info,omitempty"`
	Features      []string    `json:"features,omitempty"`
}

// CanonicalKey normalizes a license key for lookup and comparison:
// surrounding whitespace is trimmed and the key is uppercased.
func CanonicalKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ExpiryTime parses the record's expiry timestamp. The second return
// value reports whether an expiry is set at all; a parse failure is a
// data-integrity error, not a verification outcome.
func (r Record) ExpiryTime() (time.Time, bool, error) {
	raw := strings.TrimSpace(r.ExpiresAt)
	if raw == "" {
		return time.Time{}, false, nil
	}

	var lastErr error
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, true, nil
		}
		lastErr = err
	}
	return time.Time{}, true, lastErr
}

// IsBound reports whether the record currently holds a device binding.
func (r Record) IsBound() bool {
	return r.BoundDeviceID != ""
}

// Clone returns a deep copy of the record so callers can mutate the copy
// without aliasing the stored state.
func (r Record) Clone() Record {
	out := r
	if r.DeviceInfo != nil {
		info := *r.DeviceInfo
		out.DeviceInfo = &info
	}
	if r.Features != nil {
		out.Features = append([]string(nil), r.Features...)
	}
	return out
}
