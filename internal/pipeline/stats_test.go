package pipeline

import (
	"testing"
	"time"
)

func TestPhaseStatsSnapshotPercentiles(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record("content", ms)
	}
	stats.Record("toc", 7)

	snaps := stats.Snapshot()
	snap, ok := snaps["content"]
	if !ok {
		t.Fatal("expected content phase in snapshot")
	}
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snaps["toc"].Count != 1 {
		t.Errorf("expected phases tracked separately, got toc count %d", snaps["toc"].Count)
	}
}

func TestPhaseStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewPhaseStats(10 * time.Millisecond)
	stats.Record("toc", 100)
	time.Sleep(25 * time.Millisecond)

	if _, ok := stats.Snapshot()["toc"]; ok {
		t.Fatal("expected expired phase to drop out of the snapshot")
	}

	stats.Record("toc", 200)
	snap := stats.Snapshot()["toc"]
	if snap.Count != 1 || snap.MinMs != 200 {
		t.Fatalf("expected one fresh sample of 200, got %+v", snap)
	}
}

func TestPhaseStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewPhaseStats(time.Hour)
	stats.Record("toc", -5)
	if snap := stats.Snapshot()["toc"]; snap.MinMs != 0 {
		t.Errorf("expected negative duration clamped to 0, got %d", snap.MinMs)
	}
}
