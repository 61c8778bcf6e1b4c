package pipeline

import (
	"context"
	"log/slog"
)

// Worker processes a single document job.
type Worker struct {
	ingester *Ingester
	stats    *PhaseStats
	log      *slog.Logger
}

func NewWorker(ingester *Ingester, stats *PhaseStats, log *slog.Logger) *Worker {
	return &Worker{
		ingester: ingester,
		stats:    stats,
		log:      log,
	}
}

// Process runs the full ingest pipeline for a job and leaves it in a
// terminal state.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	req := job.Request()
	if req.Options.Stats == nil {
		req.Options.Stats = w.stats
	}

	out, err := w.ingester.Ingest(ctx, req, func(s JobStatus) {
		job.SetStatus(s, string(s))
	})
	if err != nil {
		log.Error("ingest failed", "error", err)
		job.AddError(err.Error())
		job.mu.Lock()
		phase := job.Phase
		job.mu.Unlock()
		job.SetStatus(StatusFailed, phase)
		return
	}

	job.SetResult(out.Document.TotalPages, out.Result)
	if out.Result.Degraded {
		job.AddError("no table of contents found")
		job.SetStatus(StatusDegraded, "done")
		return
	}
	job.SetStatus(StatusCompleted, "done")
}
