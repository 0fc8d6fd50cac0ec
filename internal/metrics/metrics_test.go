package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersTrackLabels(t *testing.T) {
	Init()
	Init() // second call is a no-op

	before := testutil.ToFloat64(ingestEvents.WithLabelValues("completed"))
	ObserveIngest("completed", 0.003)
	after := testutil.ToFloat64(ingestEvents.WithLabelValues("completed"))
	if after != before+1 {
		t.Fatalf("ingest counter = %f, want %f", after, before+1)
	}

	before = testutil.ToFloat64(ingestRejects.WithLabelValues("malformed_payload"))
	IncRejection("malformed_payload")
	after = testutil.ToFloat64(ingestRejects.WithLabelValues("malformed_payload"))
	if after != before+1 {
		t.Fatalf("rejection counter = %f, want %f", after, before+1)
	}

	before = testutil.ToFloat64(storeFailures.WithLabelValues("archive", "capacity_exceeded"))
	IncStoreFailure("archive", "capacity_exceeded")
	after = testutil.ToFloat64(storeFailures.WithLabelValues("archive", "capacity_exceeded"))
	if after != before+1 {
		t.Fatalf("store failure counter = %f, want %f", after, before+1)
	}
}

func TestHelpersAreNoOpsBeforeInit(t *testing.T) {
	// Uninitialized package-level vars must not panic; services call these
	// unconditionally.
	ObserveIngest("completed", 0)
	IncRejection("x")
	IncStoreFailure("state", "transient_unavailable")
}
