package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/wordspira/internal/document"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

// JobStatus represents the state of a push job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusAssembling JobStatus = "assembling"
	StatusPushing    JobStatus = "pushing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Credentials address one Spira instance as one user.
type Credentials struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	APIKey   string `json:"api_key"`
}

// Job tracks the state of a single push.
type Job struct {
	mu sync.Mutex

	ID        string        `json:"job_id"`
	DocID     string        `json:"doc_id"`
	Kind      stylemap.Kind `json:"kind"`
	ProjectID int           `json:"project_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData    []byte
	selection   document.Range
	credentials Credentials
	dismiss     time.Duration
	errors      []JobError
}

// Progress tracks pushed artifacts.
type Progress struct {
	Total   int        `json:"total"`
	Current int        `json:"current"`
	Failed  int        `json:"failed"`
	Errors  []JobError `json:"errors"`
}

// JobError is a user-visible error. Artifact names the failed artifact when
// the error came from a tracker call.
type JobError struct {
	Message        string `json:"message"`
	Artifact       string `json:"artifact,omitempty"`
	DismissAfterMs int64  `json:"dismiss_after_ms,omitempty"`
}

// NewJob creates a queued job for one uploaded document.
func NewJob(docID, filename string, kind stylemap.Kind, projectID int, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		DocID:     docID,
		Kind:      kind,
		ProjectID: projectID,
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
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

// AddError records an error not tied to an artifact.
func (j *Job) AddError(msg string) {
	j.addError(JobError{Message: msg})
}

// AddArtifactError records a failed artifact.
func (j *Job) AddArtifactError(name, msg string) {
	j.addError(JobError{Message: msg, Artifact: name})
}

func (j *Job) addError(e JobError) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.dismiss > 0 {
		e.DismissAfterMs = j.dismiss.Milliseconds()
	}
	j.errors = append(j.errors, e)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetProgress records pushed and total artifact counts.
func (j *Job) SetProgress(current, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Current = current
	j.Progress.Total = total
	j.UpdatedAt = time.Now()
}

// IncrFailed counts one failed artifact.
func (j *Job) IncrFailed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Failed++
	j.UpdatedAt = time.Now()
}

// SetSelection limits the push to a block range of the document.
func (j *Job) SetSelection(rng document.Range) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.selection = rng
}

// SetCredentials sets the Spira credentials used by the push.
func (j *Job) SetCredentials(c Credentials) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.credentials = c
}

// SetDismissAfter sets the auto-dismiss timeout reported with errors.
func (j *Job) SetDismissAfter(d time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dismiss = d
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

func (j *Job) inputs() ([]byte, document.Range, Credentials) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData, j.selection, j.credentials
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string        `json:"job_id"`
	DocID     string        `json:"doc_id"`
	Kind      stylemap.Kind `json:"kind"`
	ProjectID int           `json:"project_id"`
	Status    JobStatus     `json:"status"`
	Phase     string        `json:"phase"`
	Filename  string        `json:"filename"`
	Progress  Progress      `json:"progress"`
}

// Done reports whether the job reached a final state.
func (s JobSnapshot) Done() bool {
	switch s.Status {
	case StatusCompleted, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]JobError, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Kind:      j.Kind,
		ProjectID: j.ProjectID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Progress: Progress{
			Total:   j.Progress.Total,
			Current: j.Progress.Current,
			Failed:  j.Progress.Failed,
			Errors:  errs,
		},
	}
}
