package metrics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSource struct {
	rows atomic.Int64
}

func (f *fakeSource) Totals() (int64, int64) {
	return f.rows.Load() / 100, f.rows.Load()
}

func TestSampleReadsSource(t *testing.T) {
	src := &fakeSource{}
	c := NewCollector(time.Second, zap.NewNop(), src)

	if c.Last() != nil {
		t.Fatal("Last() before first sample should be nil")
	}

	c.Sample()
	src.rows.Store(1000)
	time.Sleep(10 * time.Millisecond)
	s := c.Sample()

	if s.Rows != 1000 || s.Statements != 10 {
		t.Errorf("counters = %d rows, %d statements", s.Rows, s.Statements)
	}
	if s.RowsPerSec <= 0 {
		t.Errorf("RowsPerSec = %v, want > 0", s.RowsPerSec)
	}
	if c.Last() != s {
		t.Error("Last() does not return the latest sample")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	c := NewCollector(time.Second, zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestNewCollectorDefaultsInterval(t *testing.T) {
	c := NewCollector(0, zap.NewNop(), nil)
	if c.interval != 30*time.Second {
		t.Errorf("interval = %v", c.interval)
	}
}
