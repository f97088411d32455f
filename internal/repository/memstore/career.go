package memstore

import (
	"context"
	"database/sql"
	"sort"

	"github.com/noah-isme/sipal-api/internal/models"
)

// CareerStore is the in-memory career record collection.
type CareerStore struct {
	s *Store
}

// ListByMasterID returns the career history of one master ordered by record year.
func (r *CareerStore) ListByMasterID(_ context.Context, masterID string) ([]models.CareerRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.CareerRecord, 0)
	for _, c := range r.s.careers {
		if c.MasterID == masterID {
			out = append(out, c)
		}
	}
	sortCareers(out)
	return out, nil
}

// ListAll returns every career record.
func (r *CareerStore) ListAll(_ context.Context) ([]models.CareerRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.CareerRecord, 0, len(r.s.careers))
	for _, c := range r.s.careers {
		out = append(out, c)
	}
	sortCareers(out)
	return out, nil
}

// FindByID returns sql.ErrNoRows when the record is unknown.
func (r *CareerStore) FindByID(_ context.Context, id string) (*models.CareerRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.careers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

// Create stores a new career record. The owning master must exist.
func (r *CareerStore) Create(_ context.Context, record *models.CareerRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.masters[record.MasterID]; !ok {
		return sql.ErrNoRows
	}
	if record.ID == "" {
		record.ID = r.s.newID()
	}
	now := r.s.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	r.s.careers[record.ID] = *record
	return nil
}

// Update replaces a stored career record keeping its owner and creation time.
func (r *CareerStore) Update(_ context.Context, record *models.CareerRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.careers[record.ID]
	if !ok {
		return sql.ErrNoRows
	}
	record.MasterID = existing.MasterID
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = r.s.now()
	r.s.careers[record.ID] = *record
	return nil
}

// Delete removes a career record.
func (r *CareerStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.careers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.s.careers, id)
	return nil
}

func sortCareers(items []models.CareerRecord) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	models.SortCareers(items)
}
