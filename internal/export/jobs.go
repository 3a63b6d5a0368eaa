package export

import (
	"errors"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// Status is the lifecycle state of an export job:
// pending -> processing -> (completed | failed).
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrExportInFlight is returned when a wallet already has a live export.
var ErrExportInFlight = errors.New("export already in flight for wallet")

// Job is one CSV export request. Terminal jobs are retained in memory for
// the session; nothing is persisted.
type Job struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Status        Status    `json:"status"`
	Progress      int       `json:"progress"`
	DownloadURL   string    `json:"download_url,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (j Job) terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// JobStore tracks export jobs in memory. At most one live (non-terminal)
// job exists per wallet.
type JobStore struct {
	mu    sync.Mutex
	jobs  map[string]*Job
	order []string
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create registers a new pending job for walletAddress. A wallet with a
// live job gets ErrExportInFlight.
func (s *JobStore) Create(walletAddress string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		j := s.jobs[id]
		if j.WalletAddress == walletAddress && !j.terminal() {
			return Job{}, ErrExportInFlight
		}
	}

	job := &Job{
		ID:            watermill.NewUUID(),
		WalletAddress: walletAddress,
		Status:        StatusPending,
		CreatedAt:     time.Now(),
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return *job, nil
}

// Get returns a snapshot of the job with the given ID.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// List returns snapshots of all jobs, oldest first.
func (s *JobStore) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.jobs[id])
	}
	return out
}

// SetProcessing moves a job into the processing state.
func (s *JobStore) SetProcessing(id string) {
	s.update(id, func(j *Job) {
		j.Status = StatusProcessing
	})
}

// SetProgress records fetch progress in [0, 100].
func (s *JobStore) SetProgress(id string, pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	s.update(id, func(j *Job) {
		j.Progress = pct
	})
}

// Complete marks a job done with its download URL.
func (s *JobStore) Complete(id, downloadURL string) {
	s.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Progress = 100
		j.DownloadURL = downloadURL
	})
}

// Fail marks a job failed with a user-facing message.
func (s *JobStore) Fail(id, msg string) {
	s.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = msg
	})
}

func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}
