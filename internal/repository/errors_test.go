package repository

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"deadline exceeded", context.DeadlineExceeded, KindTransientUnavailable},
		{"canceled", context.Canceled, KindTransientUnavailable},
		{"wrapped deadline", fmt.Errorf("exec: %w", context.DeadlineExceeded), KindTransientUnavailable},
		{"disk full", syscall.ENOSPC, KindCapacityExceeded},
		{"sqlite busy", errors.New("SQLITE_BUSY: database table is locked"), KindCapacityExceeded},
		{"database locked", errors.New("database is locked (5)"), KindCapacityExceeded},
		{"unknown", errors.New("connection refused"), KindTransientUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyFailure(tc.err); got != tc.want {
				t.Fatalf("classifyFailure(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestFailureKindOf(t *testing.T) {
	se := newStoreError(StoreArchive, syscall.ENOSPC)
	if got := FailureKindOf(se); got != KindCapacityExceeded {
		t.Fatalf("FailureKindOf(store error) = %q, want capacity_exceeded", got)
	}

	wrapped := fmt.Errorf("ingest: %w", se)
	if got := FailureKindOf(wrapped); got != KindCapacityExceeded {
		t.Fatalf("FailureKindOf(wrapped) = %q, want capacity_exceeded", got)
	}

	if got := FailureKindOf(errors.New("plain")); got != KindTransientUnavailable {
		t.Fatalf("FailureKindOf(plain) = %q, want transient_unavailable", got)
	}
}

func TestStoreError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("no space left on device")
	se := &StoreError{Store: StoreArchive, Kind: KindCapacityExceeded, Err: cause}

	if se.Error() != "archive store capacity_exceeded: no space left on device" {
		t.Fatalf("Error() = %q", se.Error())
	}
	if !errors.Is(se, cause) {
		t.Fatalf("Unwrap chain lost the cause")
	}
}
