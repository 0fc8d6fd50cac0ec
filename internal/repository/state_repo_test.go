package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"station_telemetry/internal/models"
	"station_telemetry/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestStateSQLite_Upsert_WritesDecimalsAsText(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewStateSQLite(db)

	reported := time.Date(2024, 1, 15, 14, 23, 45, 0, time.UTC)
	updated := time.Date(2024, 1, 15, 14, 24, 0, 0, time.UTC)
	st := models.StationState{
		DeviceID:         "station-042",
		BatteryAvailable: 7,
		BatteryCharging:  3,
		Temperature:      mustDec(t, "24.54"),
		Humidity:         mustDec(t, "61.2"),
		Status:           "operational",
		ReportedAt:       reported,
		UpdatedAt:        updated,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO station_state")).
		WithArgs(
			"station-042",
			7,
			3,
			"24.54", // decimal stored as text, not REAL
			"61.2",
			"operational",
			reported,
			updated,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), st); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Upsert_ZeroUpdatedAtBecomesNowUTC(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewStateSQLite(db)

	isUTCRecent := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok {
			return false
		}
		if tm.Location() != time.UTC {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	st := models.StationState{
		DeviceID:    "station-01",
		Temperature: mustDec(t, "20"),
		Humidity:    mustDec(t, "50"),
		Status:      "operational",
		ReportedAt:  time.Date(2024, 1, 15, 14, 23, 45, 0, time.UTC),
		// UpdatedAt is zero
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO station_state")).
		WithArgs(
			"station-01",
			0,
			0,
			"20",
			"50",
			"operational",
			st.ReportedAt,
			isUTCRecent,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), st); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateSQLite_Upsert_ErrorIsTypedStoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewStateSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO station_state")).
		WillReturnError(errors.New("SQLITE_BUSY: database is locked"))

	err = repo.Upsert(context.Background(), models.StationState{
		DeviceID:    "station-01",
		Temperature: mustDec(t, "20"),
		Humidity:    mustDec(t, "50"),
	})
	if err == nil {
		t.Fatalf("Upsert() expected error, got nil")
	}

	var se *repository.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %T: %v", err, err)
	}
	if se.Store != repository.StoreState {
		t.Fatalf("Store = %q, want %q", se.Store, repository.StoreState)
	}
	if se.Kind != repository.KindCapacityExceeded {
		t.Fatalf("Kind = %q, want capacity_exceeded for SQLITE_BUSY", se.Kind)
	}
}

func TestStateSQLite_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewStateSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT device_id, battery_available, battery_charging, temperature, humidity, status, reported_at, updated_at")).
		WithArgs("station-99").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.Get(context.Background(), "station-99")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStateSQLite_Get_ParsesDecimalsAndUTC(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewStateSQLite(db)

	locNY, _ := time.LoadLocation("America/New_York")
	nonUTC := time.Date(2024, 2, 1, 8, 30, 0, 0, locNY)

	cols := []string{"device_id", "battery_available", "battery_charging", "temperature", "humidity", "status", "reported_at", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("station-042", 7, 3, "24.54", "61.2", "operational", nonUTC, nonUTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT device_id, battery_available, battery_charging, temperature, humidity, status, reported_at, updated_at")).
		WithArgs("station-042").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "station-042")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DeviceID != "station-042" || got.BatteryAvailable != 7 || got.BatteryCharging != 3 {
		t.Fatalf("Get() unexpected fields: %+v", got)
	}
	if got.Temperature.String() != "24.54" || got.Humidity.String() != "61.2" {
		t.Fatalf("decimals: %s / %s", got.Temperature, got.Humidity)
	}
	if got.ReportedAt.Location() != time.UTC || got.UpdatedAt.Location() != time.UTC {
		t.Fatalf("timestamps not UTC: %v / %v", got.ReportedAt, got.UpdatedAt)
	}
}

func TestStateSQLite_Get_BadDecimalText(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewStateSQLite(db)

	cols := []string{"device_id", "battery_available", "battery_charging", "temperature", "humidity", "status", "reported_at", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("station-01", 1, 1, "not-a-number", "50", "operational", time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT device_id")).
		WithArgs("station-01").
		WillReturnRows(rows)

	if _, err := repo.Get(context.Background(), "station-01"); err == nil {
		t.Fatalf("Get() expected error for corrupt decimal text")
	}
}

func TestStateSQLite_List_OrderedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewStateSQLite(db)

	now := time.Now().UTC()
	cols := []string{"device_id", "battery_available", "battery_charging", "temperature", "humidity", "status", "reported_at", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("station-01", 8, 2, "21.5", "45", "operational", now, now).
		AddRow("station-02", 5, 5, "23", "52.25", "maintenance", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM station_state ORDER BY device_id ASC")).
		WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d rows, want 2", len(got))
	}
	if got[0].DeviceID != "station-01" || got[1].DeviceID != "station-02" {
		t.Fatalf("List() order: %s, %s", got[0].DeviceID, got[1].DeviceID)
	}
	if got[1].Status != "maintenance" {
		t.Fatalf("List() row 2 status %q", got[1].Status)
	}
}

func TestStateSQLite_List_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewStateSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM station_state")).
		WillReturnError(errors.New("db down"))

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("List() expected error, got nil")
	}
}

// Helpers

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
