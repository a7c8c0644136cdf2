package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qtxlicense/internal/license"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "licenses.db")
	s, err := OpenSQLite(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteGetUnknownKey(t *testing.T) {
	s := openTestSQLite(t)

	_, err := s.Get(context.Background(), "QTX-NOPE")
	assert.ErrorIs(t, err, license.ErrNotFound)
}

func TestSQLiteUpsertRoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	rec := license.Record{
		Active:        true,
		ExpiresAt:     "2027-01-01T00:00:00Z",
		BoundDeviceID: "dev-1",
		DeviceInfo:    &license.DeviceInfo{Platform: "linux", Browser: "firefox"},
		Features:      []string{"reports"},
	}
	require.NoError(t, s.Put(ctx, "QTX-0001", rec))

	got, err := s.Get(ctx, "QTX-0001")
	require.NoError(t, err)
	assert.Equal(t, "QTX-0001", got.Key)
	assert.Equal(t, "dev-1", got.BoundDeviceID)
	require.NotNil(t, got.DeviceInfo)
	assert.Equal(t, "linux", got.DeviceInfo.Platform)
	assert.Equal(t, []string{"reports"}, got.Features)

	// Second Put for the same key updates in place.
	rec.BoundDeviceID = "dev-2"
	require.NoError(t, s.Put(ctx, "QTX-0001", rec))

	got, err = s.Get(ctx, "QTX-0001")
	require.NoError(t, err)
	assert.Equal(t, "dev-2", got.BoundDeviceID)
}

func TestSQLiteReady(t *testing.T) {
	s := openTestSQLite(t)
	assert.NoError(t, s.Ready(context.Background()))
}
