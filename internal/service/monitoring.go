package service

import (
	"context"
	"errors"

	"station_telemetry/internal/models"
	"station_telemetry/internal/repository"
)

// ErrStationNotFound marks a lookup for a device that has never reported.
var ErrStationNotFound = errors.New("station not found")

// MonitoringService serves the query API from the latest-state store. It
// only ever reads; the Ingestor is the sole writer.
type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

var _ Monitoring = (*MonitoringService)(nil)

// GetStation returns the latest state for one station.
func (s *MonitoringService) GetStation(ctx context.Context, deviceID string) (models.StationState, error) {
	st, err := s.stateRepo.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.StationState{}, ErrStationNotFound
		}
		return models.StationState{}, err
	}
	return st, nil
}

// ListStations returns the latest state of every station. Anything the
// Ingestor wrote successfully is visible here; there is no freshness promise
// beyond that.
func (s *MonitoringService) ListStations(ctx context.Context) ([]models.StationState, error) {
	return s.stateRepo.List(ctx)
}
