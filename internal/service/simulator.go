package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"station_telemetry/internal/logger"
	"station_telemetry/internal/models"

	"github.com/shopspring/decimal"
)

// Publisher delivers one telemetry payload for a station to the inbound
// transport. The MQTT client implements it; tests use a recording fake.
type Publisher interface {
	PublishTelemetry(deviceID string, payload []byte) error
}

// ----------- Simulation constants -----------
const (
	defaultNumStations = 10

	chargeFinishChance = 0.20 // a charging battery becomes available
	swapChance         = 0.15 // a customer swaps a battery
	enterMaintChance   = 0.01
	exitMaintChance    = 0.10

	minTempC     = 15.0
	maxTempC     = 35.0
	tempStepC    = 0.5
	minHumidity  = 20.0
	maxHumidity  = 80.0
	humidityStep = 2.0

	payloadScale = 1 // decimal places published for sensor readings
)

// simStation is the in-memory state of one simulated battery swap station.
type simStation struct {
	deviceID         string
	batteryAvailable int
	batteryCharging  int
	temperature      float64
	humidity         float64
	status           string
	totalSwapsToday  int
	lastSwapTime     time.Time
}

// SimulatorService drives a fleet of fake stations: per tick every station
// randomly charges, swaps, drifts its sensors, and occasionally flips into
// maintenance, then publishes a telemetry event.
type SimulatorService struct {
	pub      Publisher
	log      *logger.Logger
	stations []*simStation
	rng      *rand.Rand
	now      func() time.Time
}

func NewSimulatorService(pub Publisher, log *logger.Logger, numStations int) *SimulatorService {
	if numStations <= 0 {
		numStations = defaultNumStations
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now

	stations := make([]*simStation, 0, numStations)
	for i := 1; i <= numStations; i++ {
		stations = append(stations, &simStation{
			deviceID:         fmt.Sprintf("station-%02d", i),
			batteryAvailable: 8 + rng.Intn(8),  // 8-15 ready batteries
			batteryCharging:  2 + rng.Intn(5),  // 2-6 charging
			temperature:      20.0 + rng.Float64()*10.0,
			humidity:         30.0 + rng.Float64()*30.0,
			status:           models.StatusOperational,
			totalSwapsToday:  rng.Intn(50),
			lastSwapTime:     now().UTC(),
		})
	}

	return &SimulatorService{
		pub:      pub,
		log:      log,
		stations: stations,
		rng:      rng,
		now:      now,
	}
}

var _ Simulator = (*SimulatorService)(nil)

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	if s.pub == nil {
		if s.log != nil {
			s.log.Warnw("simulator disabled: no publisher configured")
		}
		return
	}

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, st := range s.stations {
				s.step(st)
				s.publish(st)
			}
		}
	}
}

// step advances one station by one simulation tick.
func (s *SimulatorService) step(st *simStation) {
	s.simulateChargeFinish(st)
	s.simulateSwap(st)
	st.temperature = s.randomWalk(st.temperature, tempStepC, minTempC, maxTempC)
	st.humidity = s.randomWalk(st.humidity, humidityStep, minHumidity, maxHumidity)
	s.simulateStatusChange(st)
}

// simulateChargeFinish moves one battery from charging to available.
func (s *SimulatorService) simulateChargeFinish(st *simStation) {
	if st.batteryCharging > 0 && s.rng.Float64() < chargeFinishChance {
		st.batteryCharging--
		st.batteryAvailable++
	}
}

// simulateSwap takes an available battery and puts a depleted one on charge.
func (s *SimulatorService) simulateSwap(st *simStation) {
	if st.batteryAvailable > 0 && s.rng.Float64() < swapChance {
		st.batteryAvailable--
		st.batteryCharging++
		st.totalSwapsToday++
		st.lastSwapTime = s.now().UTC()
	}
}

// randomWalk nudges v by at most step in either direction, clamped to [lo, hi].
func (s *SimulatorService) randomWalk(v, step, lo, hi float64) float64 {
	v += (s.rng.Float64()*2 - 1) * step
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *SimulatorService) simulateStatusChange(st *simStation) {
	switch st.status {
	case models.StatusOperational:
		if s.rng.Float64() < enterMaintChance {
			st.status = models.StatusMaintenance
			if s.log != nil {
				s.log.Infow("station entering maintenance", "device_id", st.deviceID)
			}
		}
	case models.StatusMaintenance:
		if s.rng.Float64() < exitMaintChance {
			st.status = models.StatusOperational
			if s.log != nil {
				s.log.Infow("station back to operational", "device_id", st.deviceID)
			}
		}
	}
}

// publish serializes the station's current reading and hands it to the
// transport. Publish failures are logged and the loop continues; delivery
// guarantees belong to the transport, not the simulator.
func (s *SimulatorService) publish(st *simStation) {
	payload, err := json.Marshal(s.telemetry(st))
	if err != nil {
		if s.log != nil {
			s.log.Errorw("simulator marshal failed", "device_id", st.deviceID, "err", err)
		}
		return
	}
	if err := s.pub.PublishTelemetry(st.deviceID, payload); err != nil {
		if s.log != nil {
			s.log.Warnw("simulator publish failed", "device_id", st.deviceID, "err", err)
		}
	}
}

// telemetry snapshots the station as a wire event with a fresh timestamp.
func (s *SimulatorService) telemetry(st *simStation) models.TelemetryEvent {
	return models.TelemetryEvent{
		DeviceID:         st.deviceID,
		BatteryAvailable: st.batteryAvailable,
		BatteryCharging:  st.batteryCharging,
		Temperature:      decimal.NewFromFloat(st.temperature).Round(payloadScale),
		Humidity:         decimal.NewFromFloat(st.humidity).Round(payloadScale),
		Status:           st.status,
		Timestamp:        s.now().UTC().Truncate(time.Second),
	}
}
