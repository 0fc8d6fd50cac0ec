package repository

import (
	"context"
	"database/sql"
	"errors"

	"station_telemetry/internal/models"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by read operations when no record exists.
var ErrNotFound = errors.New("record not found")

// StateRepo is the latest-state store: one row per device, last write wins.
type StateRepo interface {
	Upsert(ctx context.Context, st models.StationState) error
	Get(ctx context.Context, deviceID string) (models.StationState, error)
	List(ctx context.Context) ([]models.StationState, error)
}

// ArchiveRepo is the append-only archive store. Keys are unique per call;
// an existing key is never overwritten.
type ArchiveRepo interface {
	Put(ctx context.Context, key string, body []byte) error
}

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type Repository struct {
	State   StateRepo
	Archive ArchiveRepo
	Auth    Authorization
}

func NewRepository(db *sql.DB, archiveFS afero.Fs, archiveRoot string) *Repository {
	return &Repository{
		State:   NewStateSQLite(db),
		Archive: NewArchiveFS(archiveFS, archiveRoot),
		Auth:    NewUserRepository(db),
	}
}
