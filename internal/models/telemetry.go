package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The wire format carries fixed-point fields as bare JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Operational status tags reported by stations.
const (
	StatusOperational = "operational"
	StatusMaintenance = "maintenance"
	StatusOffline     = "offline"
)

// TelemetryEvent is one inbound reading from a battery swap station.
// Temperature and humidity are fixed-point: the state store has no native
// floating point column, so decimals are carried end to end.
type TelemetryEvent struct {
	DeviceID         string          `json:"device_id"`
	BatteryAvailable int             `json:"battery_available"`
	BatteryCharging  int             `json:"battery_charging"`
	Temperature      decimal.Decimal `json:"temperature"` // °C
	Humidity         decimal.Decimal `json:"humidity"`    // % RH
	Status           string          `json:"status"`      // operational | maintenance | offline
	Timestamp        time.Time       `json:"timestamp"`   // event time at the station, UTC
}

// StationState is the latest accepted reading for one station, one row per
// device_id, overwritten in place. Never deleted by the pipeline.
type StationState struct {
	DeviceID         string          `json:"device_id"`
	BatteryAvailable int             `json:"battery_available"`
	BatteryCharging  int             `json:"battery_charging"`
	Temperature      decimal.Decimal `json:"temperature"`
	Humidity         decimal.Decimal `json:"humidity"`
	Status           string          `json:"status"`
	ReportedAt       time.Time       `json:"reported_at"` // event timestamp
	UpdatedAt        time.Time       `json:"updated_at"`  // when the pipeline wrote the row
}

// StateFromEvent builds the upsert row for an accepted event.
func StateFromEvent(ev TelemetryEvent, processedAt time.Time) StationState {
	return StationState{
		DeviceID:         ev.DeviceID,
		BatteryAvailable: ev.BatteryAvailable,
		BatteryCharging:  ev.BatteryCharging,
		Temperature:      ev.Temperature,
		Humidity:         ev.Humidity,
		Status:           ev.Status,
		ReportedAt:       ev.Timestamp.UTC(),
		UpdatedAt:        processedAt.UTC(),
	}
}
