package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRank(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.RecordRank("cli", 7, 3, 3.5, 10*time.Millisecond, nil)
	r.RecordRank("cli", 4, 1, 1.25, time.Millisecond, nil)
	r.RecordRank("cli", 0, 0, 0, time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(r.RankTotal.WithLabelValues("cli", "ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.RankTotal.WithLabelValues("cli", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ExpectedRevenue); got != 1.25 {
		t.Errorf("expected revenue = %v, want 1.25", got)
	}
	if got := testutil.CollectAndCount(r.RankDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestRecordFiltered(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())
	r.RecordFiltered("blacklist", 3)
	r.RecordFiltered("blacklist", 0)
	r.RecordFiltered("expr", 2)

	if got := testutil.ToFloat64(r.Filtered.WithLabelValues("blacklist")); got != 3 {
		t.Errorf("blacklist = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.Filtered.WithLabelValues("expr")); got != 2 {
		t.Errorf("expr = %v, want 2", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.RecordRank("node", 1, 1, 1, time.Millisecond, nil)
	r.RecordFiltered("x", 1)
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRecorder(reg)
	defer func() {
		if recover() == nil {
			t.Error("registering twice on the same registry should panic")
		}
	}()
	NewRecorder(reg)
}
