// Package memstore keeps every SIPAL collection in process memory. One lock
// guards all collections so that a cascading master delete is atomic.
package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sipal-api/internal/models"
)

// Store owns the in-memory collections.
type Store struct {
	mu           sync.RWMutex
	masters      map[string]models.MasterRecord
	careers      map[string]models.CareerRecord
	achievements map[string]models.AchievementRecord
	evaluations  []models.EvaluationSubmission

	now   func() time.Time
	newID func() string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		masters:      make(map[string]models.MasterRecord),
		careers:      make(map[string]models.CareerRecord),
		achievements: make(map[string]models.AchievementRecord),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// Masters exposes the master record collection.
func (s *Store) Masters() *MasterStore { return &MasterStore{s: s} }

// Careers exposes the career record collection.
func (s *Store) Careers() *CareerStore { return &CareerStore{s: s} }

// Achievements exposes the achievement collection.
func (s *Store) Achievements() *AchievementStore { return &AchievementStore{s: s} }

// Evaluations exposes the evaluation submissions.
func (s *Store) Evaluations() *EvaluationStore { return &EvaluationStore{s: s} }

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneMaster(m models.MasterRecord) models.MasterRecord {
	m.GraduationYear = cloneInt(m.GraduationYear)
	return m
}

func cloneAchievement(a models.AchievementRecord) models.AchievementRecord {
	if a.Attachments != nil {
		a.Attachments = append(models.Attachments(nil), a.Attachments...)
	}
	return a
}

func paginate[T any](items []T, page, size int) []T {
	page, size = models.NormalizePage(page, size)
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
