package metrics

import (
	"testing"
	"time"
)

func TestMetrics_RunCountersAndHealth(t *testing.T) {
	m := New()
	fixed := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	m.RecordRun(12, 3, 2)
	m.RecordRun(10, 1, 4)
	m.RecordProcessingTime(2 * time.Second)
	m.RecordProcessingTime(4 * time.Second)
	m.IncrementSummaries(true)
	m.IncrementSummaries(false)
	m.SetLastRun()

	stats := m.GetStats()
	if stats["pipeline_runs"] != int64(2) || stats["articles_displayed"] != int64(10) || stats["articles_saved"] != int64(4) {
		t.Errorf("stats = %v", stats)
	}
	if stats["average_processing_time_ms"] != int64(3000) {
		t.Errorf("average = %v", stats["average_processing_time_ms"])
	}
	if stats["last_run_time"] != "2025-12-10T09:00:00Z" || stats["last_error_time"] != "" {
		t.Errorf("times = %v / %v", stats["last_run_time"], stats["last_error_time"])
	}

	m.SetError("no data available")
	if m.Healthy() {
		t.Fatal("expected unhealthy after SetError")
	}
	m.SetLastRun()
	if !m.Healthy() {
		t.Fatal("expected healthy after a successful run")
	}
}
