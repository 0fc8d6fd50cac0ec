package service

import (
	"context"
	"time"

	"station_telemetry/internal/logger"
	"station_telemetry/internal/metrics"
	"station_telemetry/internal/models"
	"station_telemetry/internal/repository"
)

// Status is the terminal result of processing one inbound event.
type Status string

const (
	// StatusCompleted: both the state upsert and the archive append succeeded.
	StatusCompleted Status = "completed"
	// StatusPartiallyFailed: the state row was written but the archive object
	// was not. The state write is kept; nothing rolls back.
	StatusPartiallyFailed Status = "partially_failed"
	// StatusFailed: the state write failed, so the archive was never attempted.
	StatusFailed Status = "failed"
	// StatusRejected: the payload failed schema validation; no store was touched.
	StatusRejected Status = "rejected"
)

// Outcome is the single observable result for one event. Callers and tests
// assert on the exact failure shape instead of boolean flags.
type Outcome struct {
	Status         Status
	DeviceID       string
	Reason         string // rejection reason, set when Status == StatusRejected
	StateWritten   bool
	ArchiveWritten bool
	ArchiveKey     string // set once a key was derived, even if the put failed
}

const defaultStoreTimeout = 2 * time.Second

// IngestService coordinates validate → normalize → write-state →
// write-archive for one event. State is written first: the design prefers a
// fresh current value over a complete archive, so a state failure stops the
// attempt before any archive write. An archive failure after a successful
// state write is reported, not compensated.
//
// The service holds no per-event state; concurrent calls are safe because
// both stores offer per-key atomic operations. Redelivered events are
// tolerated: the upsert is idempotent, the archive accumulates a duplicate
// object under a fresh key.
type IngestService struct {
	stateRepo    repository.StateRepo
	archiveRepo  repository.ArchiveRepo
	log          *logger.Logger
	storeTimeout time.Duration

	now      func() time.Time
	newToken func() string
}

func NewIngestService(state repository.StateRepo, archive repository.ArchiveRepo, log *logger.Logger, storeTimeout time.Duration) *IngestService {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &IngestService{
		stateRepo:    state,
		archiveRepo:  archive,
		log:          log,
		storeTimeout: storeTimeout,
		now:          time.Now,
		newToken:     newArchiveToken,
	}
}

var _ Ingestor = (*IngestService)(nil)

// Ingest runs the pipeline for one payload. The transport redelivers on its
// own terms; Ingest itself never retries.
func (s *IngestService) Ingest(ctx context.Context, payload []byte) Outcome {
	started := time.Now()

	ev, rej := ValidateTelemetry(payload)
	if rej != nil {
		out := Outcome{Status: StatusRejected, Reason: rej.Reason}
		metrics.IncRejection(rej.Reason)
		s.finish(out, started)
		if s.log != nil {
			s.log.Infow("telemetry_rejected", "reason", rej.Reason)
		}
		return out
	}

	ev = NormalizeEvent(ev)
	out := Outcome{DeviceID: ev.DeviceID}

	record := models.StateFromEvent(ev, s.now().UTC())
	stateCtx, cancelState := context.WithTimeout(ctx, s.storeTimeout)
	err := s.stateRepo.Upsert(stateCtx, record)
	cancelState()
	if err != nil {
		kind := repository.FailureKindOf(err)
		metrics.IncStoreFailure(repository.StoreState, string(kind))
		if s.log != nil {
			s.log.Errorw("state_write_failed", "device_id", ev.DeviceID, "kind", kind, "err", err)
		}
		out.Status = StatusFailed
		s.finish(out, started)
		return out
	}
	out.StateWritten = true

	out.ArchiveKey = ArchiveKey(ev, s.newToken())
	body, err := CanonicalBody(ev)
	if err == nil {
		archiveCtx, cancelArchive := context.WithTimeout(ctx, s.storeTimeout)
		err = s.archiveRepo.Put(archiveCtx, out.ArchiveKey, body)
		cancelArchive()
	}
	if err != nil {
		kind := repository.FailureKindOf(err)
		metrics.IncStoreFailure(repository.StoreArchive, string(kind))
		if s.log != nil {
			s.log.Warnw("archive_write_failed",
				"device_id", ev.DeviceID, "key", out.ArchiveKey, "kind", kind, "err", err)
		}
		out.Status = StatusPartiallyFailed
		s.finish(out, started)
		return out
	}
	out.ArchiveWritten = true

	out.Status = StatusCompleted
	s.finish(out, started)
	if s.log != nil {
		s.log.Infow("telemetry_processed", "device_id", ev.DeviceID, "key", out.ArchiveKey)
	}
	return out
}

func (s *IngestService) finish(out Outcome, started time.Time) {
	metrics.ObserveIngest(string(out.Status), time.Since(started).Seconds())
}
