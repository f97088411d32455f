package memstore

import (
	"context"
	"database/sql"
	"sort"

	"github.com/noah-isme/sipal-api/internal/models"
)

// AchievementStore is the in-memory achievement collection.
type AchievementStore struct {
	s *Store
}

// ListByMasterID returns achievements of one master, oldest first.
func (r *AchievementStore) ListByMasterID(_ context.Context, masterID string) ([]models.AchievementRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.AchievementRecord, 0)
	for _, a := range r.s.achievements {
		if a.MasterID == masterID {
			out = append(out, cloneAchievement(a))
		}
	}
	sortAchievements(out)
	return out, nil
}

// ListAll returns every achievement.
func (r *AchievementStore) ListAll(_ context.Context) ([]models.AchievementRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.AchievementRecord, 0, len(r.s.achievements))
	for _, a := range r.s.achievements {
		out = append(out, cloneAchievement(a))
	}
	sortAchievements(out)
	return out, nil
}

// FindByID returns sql.ErrNoRows when the record is unknown.
func (r *AchievementStore) FindByID(_ context.Context, id string) (*models.AchievementRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.achievements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := cloneAchievement(a)
	return &out, nil
}

// Create stores a new achievement. The owning master must exist.
func (r *AchievementStore) Create(_ context.Context, record *models.AchievementRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.masters[record.MasterID]; !ok {
		return sql.ErrNoRows
	}
	if record.ID == "" {
		record.ID = r.s.newID()
	}
	if record.Attachments == nil {
		record.Attachments = models.Attachments{}
	}
	now := r.s.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	r.s.achievements[record.ID] = cloneAchievement(*record)
	return nil
}

// Update replaces the featured flag and detail of a stored achievement. Owner,
// creation time and attachments are kept; attachments change only through
// AppendAttachments and RemoveAttachment.
func (r *AchievementStore) Update(_ context.Context, record *models.AchievementRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.achievements[record.ID]
	if !ok {
		return sql.ErrNoRows
	}
	record.MasterID = existing.MasterID
	record.CreatedAt = existing.CreatedAt
	record.Attachments = append(models.Attachments(nil), existing.Attachments...)
	record.UpdatedAt = r.s.now()
	r.s.achievements[record.ID] = cloneAchievement(*record)
	return nil
}

// AppendAttachments appends atts under the store lock so concurrent uploads
// never overwrite each other. It returns the stored record and how many of
// atts fit under maxCount.
func (r *AchievementStore) AppendAttachments(_ context.Context, id string, atts models.Attachments, maxCount int) (*models.AchievementRecord, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.achievements[id]
	if !ok {
		return nil, 0, sql.ErrNoRows
	}
	next, added := existing.Attachments.AppendUpTo(atts, maxCount)
	if added > 0 {
		existing.Attachments = next
		existing.UpdatedAt = r.s.now()
		r.s.achievements[id] = cloneAchievement(existing)
	}
	out := cloneAchievement(existing)
	return &out, added, nil
}

// RemoveAttachment drops the attachment at index under the store lock.
func (r *AchievementStore) RemoveAttachment(_ context.Context, id string, index int) (*models.AchievementRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.achievements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	next, err := existing.Attachments.Without(index)
	if err != nil {
		return nil, err
	}
	existing.Attachments = next
	existing.UpdatedAt = r.s.now()
	r.s.achievements[id] = cloneAchievement(existing)
	out := cloneAchievement(existing)
	return &out, nil
}

// Delete removes an achievement and its attachments.
func (r *AchievementStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.achievements[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.s.achievements, id)
	return nil
}

// StatsByMasterID counts achievements per category for one master.
func (r *AchievementStore) StatsByMasterID(_ context.Context, masterID string) (models.AchievementStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := models.NewAchievementStats()
	for _, a := range r.s.achievements {
		if a.MasterID == masterID {
			stats[a.Category]++
		}
	}
	return stats, nil
}

func sortAchievements(items []models.AchievementRecord) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
