package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusChunking  JobStatus = "chunking"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusDegraded  JobStatus = "degraded"
	StatusFailed    JobStatus = "failed"
)

// Done reports whether s is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusDegraded || s == StatusFailed
}

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID       string
	DocID    string
	Status   JobStatus
	Phase    string
	Filename string
	Title    string
	Protocol string
	Version  string

	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	req    IngestRequest
	errors []string
}

// Progress summarises what the pipeline produced.
type Progress struct {
	TotalPages        int      `json:"total_pages"`
	TOCEntries        int      `json:"toc_entries"`
	DiscoveredEntries int      `json:"discovered_entries"`
	TotalChunks       int      `json:"total_chunks"`
	DroppedChunks     int      `json:"dropped_chunks"`
	Errors            []string `json:"errors"`
}

// NewJob creates a queued job for req.
func NewJob(req IngestRequest) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.Must(uuid.NewV7()).String(),
		DocID:     DocID(req.Protocol, req.Version, req.Data),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  req.Filename,
		Title:     req.Title,
		Protocol:  req.Protocol,
		Version:   req.Version,
		CreatedAt: now,
		UpdatedAt: now,
		req:       req,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResult records what a pipeline run produced.
func (j *Job) SetResult(pages int, res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalPages = pages
	j.Progress.TOCEntries = res.TOCEntries
	j.Progress.DiscoveredEntries = res.DiscoveredEntries
	j.Progress.TotalChunks = len(res.Chunks)
	j.Progress.DroppedChunks = res.DroppedChunks
	j.UpdatedAt = time.Now()
}

// Request returns the ingest request and releases the job's hold on the
// file bytes.
func (j *Job) Request() IngestRequest {
	j.mu.Lock()
	defer j.mu.Unlock()
	req := j.req
	j.req.Data = nil
	return req
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	DocID     string    `json:"doc_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Protocol  string    `json:"protocol"`
	Version   string    `json:"version"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Errors = append([]string{}, j.errors...)
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Title:     j.Title,
		Protocol:  j.Protocol,
		Version:   j.Version,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
