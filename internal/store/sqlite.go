package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"qtxlicense/internal/license"
)

// recordModel is the bun row shape for a license record. DeviceInfo and
// Features are stored as JSON blobs; the decision procedure never queries
// inside them.
type recordModel struct {
	bun.BaseModel `bun:"table:licenses,alias:l"`

	Key           string `bun:"license_key,pk"`
	Active        bool   `bun:"active,notnull"`
	ExpiresAt     string `bun:"expires_at"`
	BoundDeviceID string `bun:"bound_device_id"`
	DeviceInfo    []byte `bun:"device_info"`
	Features      []byte `bun:"features"`
}

// SQLite is a Store backed by an embedded SQLite database via bun.
type SQLite struct {
	db *bun.DB
}

// OpenSQLite opens (and if needed initializes) the database at dsn.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		return nil, errors.New("store: sqlite dsn is empty")
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*recordModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create licenses table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get implements license.Store.
func (s *SQLite) Get(ctx context.Context, key string) (license.Record, error) {
	var m recordModel
	err := s.db.NewSelect().
		Model(&m).
		Where("license_key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return license.Record{}, license.ErrNotFound
	}
	if err != nil {
		return license.Record{}, fmt.Errorf("store: select %s: %w", key, err)
	}
	return m.toRecord()
}

// Put implements license.Store via an upsert keyed on license_key.
func (s *SQLite) Put(ctx context.Context, key string, rec license.Record) error {
	rec.Key = key
	m, err := modelFromRecord(rec)
	if err != nil {
		return err
	}

	_, err = s.db.NewInsert().
		Model(&m).
		On("CONFLICT (license_key) DO UPDATE").
		Set("active = EXCLUDED.active").
		Set("expires_at = EXCLUDED.expires_at").
		Set("bound_device_id = EXCLUDED.bound_device_id").
		Set("device_info = EXCLUDED.device_info").
		Set("features = EXCLUDED.features").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: upsert %s: %w", key, err)
	}
	return nil
}

// Ready implements Store via a connection ping.
func (s *SQLite) Ready(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (m recordModel) toRecord() (license.Record, error) {
	rec := license.Record{
		Key:           m.Key,
		Active:        m.Active,
		ExpiresAt:     m.ExpiresAt,
		BoundDeviceID: m.BoundDeviceID,
	}
	if len(m.DeviceInfo) > 0 {
		var info license.DeviceInfo
		if err := json.Unmarshal(m.DeviceInfo, &info); err != nil {
			return license.Record{}, fmt.Errorf("store: decode device info for %s: %w", m.Key, err)
		}
		rec.DeviceInfo = &info
	}
	if len(m.Features) > 0 {
		if err := json.Unmarshal(m.Features, &rec.Features); err != nil {
			return license.Record{}, fmt.Errorf("store: decode features for %s: %w", m.Key, err)
		}
	}
	return rec, nil
}

func modelFromRecord(rec license.Record) (recordModel, error) {
	m := recordModel{
		Key:           rec.Key,
		Active:        rec.Active,
		ExpiresAt:     rec.ExpiresAt,
		BoundDeviceID: rec.BoundDeviceID,
	}
	if rec.DeviceInfo != nil {
		data, err := json.Marshal(rec.DeviceInfo)
		if err != nil {
			return recordModel{}, fmt.Errorf("store: encode device info for %s: %w", rec.Key, err)
		}
		m.DeviceInfo = data
	}
	if len(rec.Features) > 0 {
		data, err := json.Marshal(rec.Features)
		if err != nil {
			return recordModel{}, fmt.Errorf("store: encode features for %s: %w", rec.Key, err)
		}
		m.Features = data
	}
	return m, nil
}
