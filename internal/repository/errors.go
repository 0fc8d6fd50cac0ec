package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// FailureKind classifies a store write failure for the ingestion outcome.
type FailureKind string

const (
	// KindTransientUnavailable covers timeouts and temporary store outages.
	KindTransientUnavailable FailureKind = "transient_unavailable"
	// KindCapacityExceeded covers throttling: a busy writer or a full volume.
	KindCapacityExceeded FailureKind = "capacity_exceeded"
)

// Store names used in failure reporting and metrics labels.
const (
	StoreState   = "state"
	StoreArchive = "archive"
)

// StoreError wraps a write failure with the store it came from and its kind.
type StoreError struct {
	Store string
	Kind  FailureKind
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Store, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func newStoreError(store string, err error) *StoreError {
	return &StoreError{Store: store, Kind: classifyFailure(err), Err: err}
}

// classifyFailure maps driver and filesystem errors onto the two failure
// kinds. Anything unrecognized is treated as transient.
func classifyFailure(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransientUnavailable
	}
	if errors.Is(err, syscall.ENOSPC) {
		return KindCapacityExceeded
	}
	// modernc.org/sqlite surfaces throttling as SQLITE_BUSY text.
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return KindCapacityExceeded
	}
	return KindTransientUnavailable
}

// FailureKindOf extracts the failure kind from err, defaulting to transient.
func FailureKindOf(err error) FailureKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransientUnavailable
}
