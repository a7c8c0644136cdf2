package license

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := newFakeStore(Record{Key: "QTX-MOVE", Active: true, BoundDeviceID: "dev-old"})
	engine := testEngine(t, st)

	code := GenerateCode("QTX-MOVE", "dev-old")
	decision, err := engine.Transfer(context.Background(), "QTX-MOVE", "dev-old", "dev-new", code, now)
	require.NoError(t, err)
	assert.True(t, decision.Success)

	rec := st.record("QTX-MOVE")
	assert.Equal(t, "dev-new", rec.BoundDeviceID)
	require.NotNil(t, rec.DeviceInfo)
	assert.True(t, rec.DeviceInfo.LastActive.Equal(now))

	// The new device verifies, the old one no longer does.
	verify, err := engine.Verify(context.Background(), "QTX-MOVE", "dev-new", nil, now)
	require.NoError(t, err)
	assert.True(t, verify.Valid)

	verify, err = engine.Verify(context.Background(), "QTX-MOVE", "dev-old", nil, now)
	require.NoError(t, err)
	assert.Equal(t, ReasonDeviceMismatch, verify.Reason)
}

func TestTransferRefusals(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		record     *Record
		current    string
		code       string
		wantReason Reason
	}{
		{
			name:       "unknown key",
			record:     nil,
			current:    "dev-old",
			code:       "WHATEVER",
			wantReason: ReasonNotFound,
		},
		{
			name:       "inactive record is inert",
			record:     &Record{Key: "QTX-MOVE", Active: false, BoundDeviceID: "dev-old"},
			current:    "dev-old",
			code:       GenerateCode("QTX-MOVE", "dev-old"),
			wantReason: ReasonInactive,
		},
		{
			name:       "caller does not hold the seat",
			record:     &Record{Key: "QTX-MOVE", Active: true, BoundDeviceID: "dev-other"},
			current:    "dev-old",
			code:       GenerateCode("QTX-MOVE", "dev-old"),
			wantReason: ReasonNotAuthorized,
		},
		{
			name:       "unbound record has no holder",
			record:     &Record{Key: "QTX-MOVE", Active: true},
			current:    "dev-old",
			code:       GenerateCode("QTX-MOVE", "dev-old"),
			wantReason: ReasonNotAuthorized,
		},
		{
			name:       "wrong code",
			record:     &Record{Key: "QTX-MOVE", Active: true, BoundDeviceID: "dev-old"},
			current:    "dev-old",
			code:       "AAAAAAAA",
			wantReason: ReasonInvalidCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st *fakeStore
			if tt.record != nil {
				st = newFakeStore(*tt.record)
			} else {
				st = newFakeStore()
			}
			engine := testEngine(t, st)

			decision, err := engine.Transfer(context.Background(), "QTX-MOVE", tt.current, "dev-new", tt.code, now)
			require.NoError(t, err)
			assert.False(t, decision.Success)
			assert.Equal(t, tt.wantReason, decision.Reason)

			// Refusals never touch the record.
			if tt.record != nil {
				assert.Equal(t, tt.record.BoundDeviceID, st.record("QTX-MOVE").BoundDeviceID)
			}
			assert.Zero(t, st.putCnt)
		})
	}
}

func TestTransferInputErrors(t *testing.T) {
	engine := testEngine(t, newFakeStore())
	now := time.Now()

	_, err := engine.Transfer(context.Background(), "", "dev-old", "dev-new", "CODE", now)
	assert.ErrorIs(t, err, ErrInput)

	_, err = engine.Transfer(context.Background(), "QTX-MOVE", "", "dev-new", "CODE", now)
	assert.ErrorIs(t, err, ErrInput)

	_, err = engine.Transfer(context.Background(), "QTX-MOVE", "dev-old", "", "CODE", now)
	assert.ErrorIs(t, err, ErrInput)

	_, err = engine.Transfer(context.Background(), "QTX-MOVE", "dev-old", "dev-new", "  ", now)
	assert.ErrorIs(t, err, ErrInput)
}

func TestTransferStoreFailure(t *testing.T) {
	st := newFakeStore(Record{Key: "QTX-MOVE", Active: true, BoundDeviceID: "dev-old"})
	st.putErr = errors.New("write refused")
	engine := testEngine(t, st)

	_, err := engine.Transfer(context.Background(), "QTX-MOVE", "dev-old", "dev-new",
		GenerateCode("QTX-MOVE", "dev-old"), time.Now())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestResetClearsBinding(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := newFakeStore(Record{
		Key:           "QTX-RESET",
		Active:        true,
		BoundDeviceID: "dev-old",
		DeviceInfo:    &DeviceInfo{Platform: "linux", LastActive: now},
	})
	engine := testEngine(t, st)

	decision, err := engine.Reset(context.Background(), "QTX-RESET", GenerateCode("QTX-RESET", AdminPrincipal), now)
	require.NoError(t, err)
	assert.True(t, decision.Success)

	rec := st.record("QTX-RESET")
	assert.Empty(t, rec.BoundDeviceID)
	assert.Nil(t, rec.DeviceInfo)

	// The seat is claimable again by anyone.
	verify, err := engine.Verify(context.Background(), "QTX-RESET", "dev-fresh", nil, now)
	require.NoError(t, err)
	assert.True(t, verify.Valid)
	assert.Equal(t, "dev-fresh", st.record("QTX-RESET").BoundDeviceID)
}

func TestResetRefusals(t *testing.T) {
	now := time.Now()

	t.Run("unknown key", func(t *testing.T) {
		engine := testEngine(t, newFakeStore())
		decision, err := engine.Reset(context.Background(), "QTX-GONE", "CODE", now)
		require.NoError(t, err)
		assert.Equal(t, ReasonNotFound, decision.Reason)
	})

	t.Run("inactive record is inert", func(t *testing.T) {
		st := newFakeStore(Record{Key: "QTX-RESET", Active: false, BoundDeviceID: "dev-old"})
		engine := testEngine(t, st)
		decision, err := engine.Reset(context.Background(), "QTX-RESET", GenerateCode("QTX-RESET", AdminPrincipal), now)
		require.NoError(t, err)
		assert.Equal(t, ReasonInactive, decision.Reason)
		assert.Equal(t, "dev-old", st.record("QTX-RESET").BoundDeviceID)
	})

	t.Run("device code does not authorize reset", func(t *testing.T) {
		st := newFakeStore(Record{Key: "QTX-RESET", Active: true, BoundDeviceID: "dev-old"})
		engine := testEngine(t, st)
		decision, err := engine.Reset(context.Background(), "QTX-RESET", GenerateCode("QTX-RESET", "dev-old"), now)
		require.NoError(t, err)
		assert.Equal(t, ReasonInvalidCode, decision.Reason)
		assert.Equal(t, "dev-old", st.record("QTX-RESET").BoundDeviceID)
	})
}
