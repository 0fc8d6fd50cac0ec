package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"station_telemetry/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// storeScale is the number of fractional digits the state store keeps for
// decimal sensor fields.
const storeScale = 2

// NormalizeEvent rounds the decimal sensor fields to the store precision
// using round-half-to-even and pins the timestamp to UTC. Idempotent:
// normalizing an already-normalized event changes nothing.
func NormalizeEvent(ev models.TelemetryEvent) models.TelemetryEvent {
	ev.Temperature = normalizeDecimal(ev.Temperature)
	ev.Humidity = normalizeDecimal(ev.Humidity)
	ev.Timestamp = ev.Timestamp.UTC()
	return ev
}

func normalizeDecimal(d decimal.Decimal) decimal.Decimal {
	if d.Exponent() >= -storeScale {
		return d
	}
	return d.RoundBank(storeScale)
}

// CanonicalBody renders the normalized event as its stable archive form.
// Field order is fixed by the struct, so equal events yield equal bytes.
func CanonicalBody(ev models.TelemetryEvent) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal telemetry event: %w", err)
	}
	return body, nil
}

const archiveKeyPrefix = "telemetry"

// ArchiveKey builds the date-partitioned object key for one accepted event:
//
//	telemetry/year=2024/month=01/day=15/station-01_20240115_142345_ab12cd34.json
//
// The token makes the key unique even when one station reports twice within
// a second or the transport redelivers the event.
func ArchiveKey(ev models.TelemetryEvent, token string) string {
	t := ev.Timestamp.UTC()
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/%s_%s_%s.json",
		archiveKeyPrefix,
		t.Year(), int(t.Month()), t.Day(),
		ev.DeviceID,
		t.Format("20060102_150405"),
		token,
	)
}

// newArchiveToken returns a short random suffix for archive keys.
func newArchiveToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
