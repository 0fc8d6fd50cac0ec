package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"station_telemetry/internal/models"

	"github.com/shopspring/decimal"
)

// StateSQLite persists the latest station state, one row per device_id.
type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

const (
	upsertStateSQL = `
		INSERT INTO station_state (device_id, battery_available, battery_charging, temperature, humidity, status, reported_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			battery_available=excluded.battery_available,
			battery_charging=excluded.battery_charging,
			temperature=excluded.temperature,
			humidity=excluded.humidity,
			status=excluded.status,
			reported_at=excluded.reported_at,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT device_id, battery_available, battery_charging, temperature, humidity, status, reported_at, updated_at
		FROM station_state WHERE device_id=?
	`

	listStateSQL = `
		SELECT device_id, battery_available, battery_charging, temperature, humidity, status, reported_at, updated_at
		FROM station_state ORDER BY device_id ASC
	`
)

// Upsert writes the row for st.DeviceID unconditionally. There is no
// timestamp comparison: a late delivery overwrites a newer row (last write
// wins at the store, an accepted consistency gap).
func (r *StateSQLite) Upsert(ctx context.Context, st models.StationState) error {
	updatedAt := st.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	} else {
		updatedAt = updatedAt.UTC()
	}

	// Decimals are stored as text: SQLite REAL would reintroduce the
	// floating point the normalizer just removed.
	_, err := r.db.ExecContext(ctx, upsertStateSQL,
		st.DeviceID,
		st.BatteryAvailable,
		st.BatteryCharging,
		st.Temperature.String(),
		st.Humidity.String(),
		st.Status,
		st.ReportedAt.UTC(),
		updatedAt,
	)
	if err != nil {
		return newStoreError(StoreState, err)
	}
	return nil
}

// Get fetches one station row. Returns ErrNotFound if the device has never
// reported.
func (r *StateSQLite) Get(ctx context.Context, deviceID string) (models.StationState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, deviceID)
	st, err := scanState(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StationState{}, ErrNotFound
		}
		return models.StationState{}, fmt.Errorf("select station %q: %w", deviceID, err)
	}
	return st, nil
}

// List returns every station row, ordered by device id.
func (r *StateSQLite) List(ctx context.Context) ([]models.StationState, error) {
	rows, err := r.db.QueryContext(ctx, listStateSQL)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	out := make([]models.StationState, 0, 16)
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station row: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate station rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (models.StationState, error) {
	var (
		st              models.StationState
		tempStr, humStr string
	)
	if err := row.Scan(
		&st.DeviceID,
		&st.BatteryAvailable,
		&st.BatteryCharging,
		&tempStr,
		&humStr,
		&st.Status,
		&st.ReportedAt,
		&st.UpdatedAt,
	); err != nil {
		return models.StationState{}, err
	}

	temp, err := decimal.NewFromString(tempStr)
	if err != nil {
		return models.StationState{}, fmt.Errorf("parse temperature %q: %w", tempStr, err)
	}
	hum, err := decimal.NewFromString(humStr)
	if err != nil {
		return models.StationState{}, fmt.Errorf("parse humidity %q: %w", humStr, err)
	}
	st.Temperature = temp
	st.Humidity = hum
	st.ReportedAt = st.ReportedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return st, nil
}
