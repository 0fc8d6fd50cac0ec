package service

import (
	"context"
	"time"

	"station_telemetry/internal/logger"
	"station_telemetry/internal/models"
	"station_telemetry/internal/repository"
)

// Ingestor processes one inbound telemetry payload end to end and reports a
// terminal outcome. It never returns an error: a bad event is an outcome,
// not a crash.
type Ingestor interface {
	Ingest(ctx context.Context, payload []byte) Outcome
}

// Monitoring exposes read-only access to the latest station states.
type Monitoring interface {
	GetStation(ctx context.Context, deviceID string) (models.StationState, error)
	ListStations(ctx context.Context) ([]models.StationState, error)
}

// Simulator runs the background fleet simulation publishing telemetry.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Service aggregates all sub-services behind one struct for wiring.
type Service struct {
	Ingestor
	Monitoring
	Simulator
	Authorization
}

// Config carries the knobs resolved in main(); nothing here is read from
// ambient globals.
type Config struct {
	StoreTimeout      time.Duration
	SimulatorStations int
	AuthSigningKey    string
	AuthTokenTTL      time.Duration
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, pub Publisher, log *logger.Logger, cfg Config) *Service {
	return &Service{
		Ingestor:      NewIngestService(repos.State, repos.Archive, log, cfg.StoreTimeout),
		Monitoring:    NewMonitoringService(repos.State),
		Simulator:     NewSimulatorService(pub, log, cfg.SimulatorStations),
		Authorization: NewAuthService(repos.Auth, cfg.AuthSigningKey, cfg.AuthTokenTTL),
	}
}
