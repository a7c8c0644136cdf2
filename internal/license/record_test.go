package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "QTX-0001", CanonicalKey("  qtx-0001 \n"))
	assert.Equal(t, "QTX-0001", CanonicalKey("QTX-0001"))
	assert.Equal(t, "", CanonicalKey("   "))
}

func TestExpiryTimeLayouts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantSet bool
		wantErr bool
	}{
		{name: "empty means perpetual", raw: "", wantSet: false},
		{name: "whitespace means perpetual", raw: "  ", wantSet: false},
		{
			name:    "rfc3339",
			raw:     "2026-06-01T00:00:00Z",
			want:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			wantSet: true,
		},
		{
			name:    "naive timestamp",
			raw:     "2026-06-01T08:30:00",
			want:    time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC),
			wantSet: true,
		},
		{
			name:    "date only",
			raw:     "2026-06-01",
			want:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			wantSet: true,
		},
		{name: "garbage", raw: "next tuesday", wantSet: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{ExpiresAt: tt.raw}
			got, set, err := rec.ExpiryTime()
			assert.Equal(t, tt.wantSet, set)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantSet {
				assert.True(t, got.Equal(tt.want))
			}
		})
	}
}

func TestRecordClone(t *testing.T) {
	orig := Record{
		Key:           "QTX-0001",
		Active:        true,
		BoundDeviceID: "dev-1",
		DeviceInfo:    &DeviceInfo{Platform: "linux"},
		Features:      []string{"reports"},
	}

	clone := orig.Clone()
	clone.DeviceInfo.Platform = "windows"
	clone.Features[0] = "exports"

	assert.Equal(t, "linux", orig.DeviceInfo.Platform)
	assert.Equal(t, "reports", orig.Features[0])
}
