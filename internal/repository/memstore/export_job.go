package memstore

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/sipal-api/internal/models"
)

// ExportJobStore tracks asynchronous exports. Jobs live as long as the
// process, like the files they point to.
type ExportJobStore struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

// NewExportJobStore returns an empty job store.
func NewExportJobStore() *ExportJobStore {
	return &ExportJobStore{jobs: make(map[string]models.ExportJob)}
}

// Create stores job, assigning an id when missing.
func (s *ExportJobStore) Create(_ context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	s.jobs[job.ID] = cloneJob(*job)
	return nil
}

// Get returns sql.ErrNoRows for unknown ids.
func (s *ExportJobStore) Get(_ context.Context, id string) (*models.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := cloneJob(job)
	return &out, nil
}

// Update replaces a stored job.
func (s *ExportJobStore) Update(_ context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return sql.ErrNoRows
	}
	s.jobs[job.ID] = cloneJob(*job)
	return nil
}

func cloneJob(j models.ExportJob) models.ExportJob {
	j.Filter.GraduationYear = cloneInt(j.Filter.GraduationYear)
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		j.FinishedAt = &t
	}
	return j
}
