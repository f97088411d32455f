package memstore

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/noah-isme/sipal-api/internal/models"
)

// MasterStore is the in-memory master record collection.
type MasterStore struct {
	s *Store
}

// List returns a page of master records matching filter and the total count.
func (r *MasterStore) List(_ context.Context, filter models.MasterFilter) ([]models.MasterRecord, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]models.MasterRecord, 0, len(r.s.masters))
	for _, m := range r.s.masters {
		if filter.Matches(&m) {
			matched = append(matched, cloneMaster(m))
		}
	}
	sortMasters(matched, filter.SortBy, filter.SortOrder)
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// ListAll returns every master record matching filter, ignoring paging.
func (r *MasterStore) ListAll(_ context.Context, filter models.MasterFilter) ([]models.MasterRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]models.MasterRecord, 0, len(r.s.masters))
	for _, m := range r.s.masters {
		if filter.Matches(&m) {
			matched = append(matched, cloneMaster(m))
		}
	}
	sortMasters(matched, "full_name", "ASC")
	return matched, nil
}

// FindByID returns sql.ErrNoRows when the record is unknown.
func (r *MasterStore) FindByID(_ context.Context, id string) (*models.MasterRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.masters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := cloneMaster(m)
	return &out, nil
}

// FindByNameAndYear performs the identity-validation lookup.
func (r *MasterStore) FindByNameAndYear(_ context.Context, name string, year int) ([]models.MasterRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.MasterRecord, 0)
	for _, m := range r.s.masters {
		if m.MatchesIdentity(name, year) {
			out = append(out, cloneMaster(m))
		}
	}
	sortMasters(out, "full_name", "ASC")
	return out, nil
}

// ExistsByNIM checks NIM usage optionally excluding one record.
func (r *MasterStore) ExistsByNIM(_ context.Context, nim string, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.nimTakenLocked(nim, excludeID), nil
}

func (r *MasterStore) nimTakenLocked(nim, excludeID string) bool {
	for id, m := range r.s.masters {
		if m.NIM == nim && id != excludeID {
			return true
		}
	}
	return false
}

// Create inserts a master record, assigning id and timestamps. A NIM already
// in use yields models.ErrDuplicateNIM.
func (r *MasterStore) Create(_ context.Context, record *models.MasterRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nimTakenLocked(record.NIM, record.ID) {
		return models.ErrDuplicateNIM
	}
	if record.ID == "" {
		record.ID = r.s.newID()
	}
	now := r.s.now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	r.s.masters[record.ID] = cloneMaster(*record)
	return nil
}

// Update replaces a stored master record.
func (r *MasterStore) Update(_ context.Context, record *models.MasterRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.masters[record.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if r.nimTakenLocked(record.NIM, record.ID) {
		return models.ErrDuplicateNIM
	}
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = r.s.now()
	r.s.masters[record.ID] = cloneMaster(*record)
	return nil
}

// Delete removes the master record together with its careers and achievements.
func (r *MasterStore) Delete(_ context.Context, id string) (models.CascadeResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result models.CascadeResult
	if _, ok := r.s.masters[id]; !ok {
		return result, sql.ErrNoRows
	}
	for cid, c := range r.s.careers {
		if c.MasterID == id {
			delete(r.s.careers, cid)
			result.Careers++
		}
	}
	for aid, a := range r.s.achievements {
		if a.MasterID == id {
			delete(r.s.achievements, aid)
			result.Achievements++
		}
	}
	delete(r.s.masters, id)
	return result, nil
}

func sortMasters(items []models.MasterRecord, sortBy, order string) {
	desc := strings.EqualFold(order, "DESC")
	less := func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) }
	switch sortBy {
	case "full_name":
		less = func(i, j int) bool { return strings.ToLower(items[i].FullName) < strings.ToLower(items[j].FullName) }
	case "nim":
		less = func(i, j int) bool { return items[i].NIM < items[j].NIM }
	case "graduation_year":
		less = func(i, j int) bool { return yearOf(items[i].GraduationYear) < yearOf(items[j].GraduationYear) }
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func yearOf(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
