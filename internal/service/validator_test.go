package service

import (
	"testing"
	"time"
)

const validPayload = `{
	"device_id": "station-042",
	"battery_available": 7,
	"battery_charging": 3,
	"temperature": 24.537,
	"humidity": 61.2,
	"status": "operational",
	"timestamp": "2024-01-15T14:23:45Z"
}`

func TestValidateTelemetry_HappyPath(t *testing.T) {
	ev, rej := ValidateTelemetry([]byte(validPayload))
	if rej != nil {
		t.Fatalf("unexpected rejection: %s", rej.Reason)
	}
	if ev.DeviceID != "station-042" {
		t.Fatalf("DeviceID = %q, want station-042", ev.DeviceID)
	}
	if ev.BatteryAvailable != 7 || ev.BatteryCharging != 3 {
		t.Fatalf("batteries = %d/%d, want 7/3", ev.BatteryAvailable, ev.BatteryCharging)
	}
	if ev.Temperature.String() != "24.537" {
		t.Fatalf("Temperature = %s, want inbound precision 24.537", ev.Temperature)
	}
	if ev.Humidity.String() != "61.2" {
		t.Fatalf("Humidity = %s, want 61.2", ev.Humidity)
	}
	if ev.Status != "operational" {
		t.Fatalf("Status = %q", ev.Status)
	}
	want := time.Date(2024, 1, 15, 14, 23, 45, 0, time.UTC)
	if !ev.Timestamp.Equal(want) || ev.Timestamp.Location() != time.UTC {
		t.Fatalf("Timestamp = %v, want %v in UTC", ev.Timestamp, want)
	}
}

func TestValidateTelemetry_NoRangeChecks(t *testing.T) {
	// Presence and type only: absurd values still pass.
	payload := `{
		"device_id": "station-001",
		"battery_available": -5,
		"battery_charging": 9999,
		"temperature": -273.15,
		"humidity": 150.0,
		"status": "smoldering",
		"timestamp": "2024-01-15T14:23:45+02:00"
	}`
	ev, rej := ValidateTelemetry([]byte(payload))
	if rej != nil {
		t.Fatalf("unexpected rejection: %s", rej.Reason)
	}
	if ev.BatteryAvailable != -5 {
		t.Fatalf("BatteryAvailable = %d, want -5", ev.BatteryAvailable)
	}
	if ev.Timestamp.Location() != time.UTC {
		t.Fatalf("Timestamp not normalized to UTC: %v", ev.Timestamp)
	}
}

func TestValidateTelemetry_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		reason  string
	}{
		{
			name:    "undecodable bytes",
			payload: `{"device_id": `,
			reason:  ReasonMalformedPayload,
		},
		{
			name:    "not an object",
			payload: `[1, 2, 3]`,
			reason:  ReasonMalformedPayload,
		},
		{
			name:    "missing device_id",
			payload: `{"battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":50.0,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "missing_field:device_id",
		},
		{
			name:    "device_id wrong type",
			payload: `{"device_id":42,"battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":50.0,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "wrong_type:device_id",
		},
		{
			name:    "device_id empty",
			payload: `{"device_id":"","battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":50.0,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "wrong_type:device_id",
		},
		{
			name:    "missing battery_available",
			payload: `{"device_id":"s1","battery_charging":1,"temperature":20.0,"humidity":50.0,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "missing_field:battery_available",
		},
		{
			name:    "battery_available fractional",
			payload: `{"device_id":"s1","battery_available":1.5,"battery_charging":1,"temperature":20.0,"humidity":50.0,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "wrong_type:battery_available",
		},
		{
			name:    "battery_charging as string",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":"3","temperature":20.0,"humidity":50.0,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "wrong_type:battery_charging",
		},
		{
			name:    "missing temperature",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":1,"humidity":50.0,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "missing_field:temperature",
		},
		{
			name:    "temperature as string",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":1,"temperature":"hot","humidity":50.0,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "wrong_type:temperature",
		},
		{
			name:    "humidity as bool",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":true,"status":"operational","timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "wrong_type:humidity",
		},
		{
			name:    "missing status",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":50.0,"timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "missing_field:status",
		},
		{
			name:    "status wrong type",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":50.0,"status":7,"timestamp":"2024-01-15T14:23:45Z"}`,
			reason:  "wrong_type:status",
		},
		{
			name:    "missing timestamp",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":50.0,"status":"operational"}`,
			reason:  "missing_field:timestamp",
		},
		{
			name:    "timestamp not a string",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":50.0,"status":"operational","timestamp":1705328625}`,
			reason:  ReasonMalformedTimestamp,
		},
		{
			name:    "timestamp not RFC3339",
			payload: `{"device_id":"s1","battery_available":1,"battery_charging":1,"temperature":20.0,"humidity":50.0,"status":"operational","timestamp":"15/01/2024 14:23"}`,
			reason:  ReasonMalformedTimestamp,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, rej := ValidateTelemetry([]byte(tc.payload))
			if rej == nil {
				t.Fatalf("expected rejection %q, got none", tc.reason)
			}
			if rej.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", rej.Reason, tc.reason)
			}
		})
	}
}

func TestValidateTelemetry_FieldOrderFirstViolationWins(t *testing.T) {
	// Several fields broken at once: device_id is checked first.
	payload := `{"battery_available":"x","temperature":true}`
	_, rej := ValidateTelemetry([]byte(payload))
	if rej == nil || rej.Reason != "missing_field:device_id" {
		t.Fatalf("expected missing_field:device_id, got %+v", rej)
	}
}
