package memstore

import (
	"context"

	"github.com/noah-isme/sipal-api/internal/models"
)

// EvaluationStore keeps employer evaluations in submission order.
type EvaluationStore struct {
	s *Store
}

// Create appends a submission.
func (r *EvaluationStore) Create(_ context.Context, e *models.EvaluationSubmission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = r.s.newID()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = r.s.now()
	}
	r.s.evaluations = append(r.s.evaluations, *e)
	return nil
}

// List returns the newest submissions first.
func (r *EvaluationStore) List(_ context.Context, filter models.EvaluationFilter) ([]models.EvaluationSubmission, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := make([]models.EvaluationSubmission, 0, len(r.s.evaluations))
	for i := len(r.s.evaluations) - 1; i >= 0; i-- {
		e := r.s.evaluations[i]
		if filter.StudentID != "" && e.Student.ID != filter.StudentID {
			continue
		}
		if filter.Program != "" && e.Student.Program != filter.Program {
			continue
		}
		matched = append(matched, e)
	}
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// Summary averages every rating category across all submissions.
func (r *EvaluationStore) Summary(_ context.Context) (models.EvaluationSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum models.EvaluationSummary
	for _, e := range r.s.evaluations {
		sum.TechnicalCompetence += float64(e.Ratings.TechnicalCompetence)
		sum.WorkEthic += float64(e.Ratings.WorkEthic)
		sum.Communication += float64(e.Ratings.Communication)
		sum.Initiative += float64(e.Ratings.Initiative)
		sum.Overall += float64(e.Ratings.Overall)
	}
	sum.Count = len(r.s.evaluations)
	if sum.Count > 0 {
		n := float64(sum.Count)
		sum.TechnicalCompetence /= n
		sum.WorkEthic /= n
		sum.Communication /= n
		sum.Initiative /= n
		sum.Overall /= n
	}
	return sum, nil
}
