package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunInitiated_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(runsInitiated.WithLabelValues("order"))
	RunInitiated("order")
	after := testutil.ToFloat64(runsInitiated.WithLabelValues("order"))
	if after != before+1 {
		t.Errorf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestStepDispatchedAndRetried(t *testing.T) {
	StepDispatched("order", "ChargeCard")
	StepRetried("order", "ChargeCard")
	if v := testutil.ToFloat64(stepsDispatched.WithLabelValues("order", "ChargeCard")); v < 1 {
		t.Errorf("expected dispatched counter >= 1, got %v", v)
	}
	if v := testutil.ToFloat64(stepRetries.WithLabelValues("order", "ChargeCard")); v < 1 {
		t.Errorf("expected retry counter >= 1, got %v", v)
	}
}

func TestInitTracing(t *testing.T) {
	tp, err := InitTracing("mediator-test")
	if err != nil {
		t.Fatalf("InitTracing failed: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
}
