package service

import (
	"bytes"
	"encoding/json"
	"time"

	"station_telemetry/internal/models"

	"github.com/shopspring/decimal"
)

// Rejection reasons form a closed set. The validator checks presence and
// type only: no range checks and no cross-field checks. A negative battery
// count or an out-of-range temperature passes; the pipeline trusts the fleet.
const (
	ReasonMalformedPayload   = "malformed_payload"
	ReasonMalformedTimestamp = "malformed_timestamp"
)

func reasonMissingField(field string) string { return "missing_field:" + field }
func reasonWrongType(field string) string    { return "wrong_type:" + field }

// Rejection names the schema violation that dropped an event.
type Rejection struct {
	Reason string
}

// Field names of the telemetry wire format, in validation order.
const (
	fieldDeviceID         = "device_id"
	fieldBatteryAvailable = "battery_available"
	fieldBatteryCharging  = "battery_charging"
	fieldTemperature      = "temperature"
	fieldHumidity         = "humidity"
	fieldStatus           = "status"
	fieldTimestamp        = "timestamp"
)

// ValidateTelemetry parses a raw payload and checks the telemetry schema.
// On success the returned event carries decimals at their inbound precision;
// normalization happens afterwards. No side effects.
func ValidateTelemetry(payload []byte) (models.TelemetryEvent, *Rejection) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return models.TelemetryEvent{}, &Rejection{Reason: ReasonMalformedPayload}
	}

	var ev models.TelemetryEvent

	deviceID, rej := stringField(raw, fieldDeviceID)
	if rej != nil {
		return models.TelemetryEvent{}, rej
	}
	if deviceID == "" {
		return models.TelemetryEvent{}, &Rejection{Reason: reasonWrongType(fieldDeviceID)}
	}
	ev.DeviceID = deviceID

	if ev.BatteryAvailable, rej = intField(raw, fieldBatteryAvailable); rej != nil {
		return models.TelemetryEvent{}, rej
	}
	if ev.BatteryCharging, rej = intField(raw, fieldBatteryCharging); rej != nil {
		return models.TelemetryEvent{}, rej
	}
	if ev.Temperature, rej = decimalField(raw, fieldTemperature); rej != nil {
		return models.TelemetryEvent{}, rej
	}
	if ev.Humidity, rej = decimalField(raw, fieldHumidity); rej != nil {
		return models.TelemetryEvent{}, rej
	}
	if ev.Status, rej = stringField(raw, fieldStatus); rej != nil {
		return models.TelemetryEvent{}, rej
	}

	tsRaw, ok := raw[fieldTimestamp]
	if !ok {
		return models.TelemetryEvent{}, &Rejection{Reason: reasonMissingField(fieldTimestamp)}
	}
	tsStr, ok := tsRaw.(string)
	if !ok {
		return models.TelemetryEvent{}, &Rejection{Reason: ReasonMalformedTimestamp}
	}
	ts, err := time.Parse(time.RFC3339, tsStr)
	if err != nil {
		return models.TelemetryEvent{}, &Rejection{Reason: ReasonMalformedTimestamp}
	}
	ev.Timestamp = ts.UTC()

	return ev, nil
}

func stringField(raw map[string]any, field string) (string, *Rejection) {
	v, ok := raw[field]
	if !ok {
		return "", &Rejection{Reason: reasonMissingField(field)}
	}
	s, ok := v.(string)
	if !ok {
		return "", &Rejection{Reason: reasonWrongType(field)}
	}
	return s, nil
}

func intField(raw map[string]any, field string) (int, *Rejection) {
	v, ok := raw[field]
	if !ok {
		return 0, &Rejection{Reason: reasonMissingField(field)}
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, &Rejection{Reason: reasonWrongType(field)}
	}
	i, err := n.Int64()
	if err != nil {
		return 0, &Rejection{Reason: reasonWrongType(field)}
	}
	return int(i), nil
}

func decimalField(raw map[string]any, field string) (decimal.Decimal, *Rejection) {
	v, ok := raw[field]
	if !ok {
		return decimal.Decimal{}, &Rejection{Reason: reasonMissingField(field)}
	}
	n, ok := v.(json.Number)
	if !ok {
		return decimal.Decimal{}, &Rejection{Reason: reasonWrongType(field)}
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, &Rejection{Reason: reasonWrongType(field)}
	}
	return d, nil
}
