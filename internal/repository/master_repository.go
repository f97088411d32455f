package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sipal-api/internal/models"
)

const masterColumns = "id, full_name, nim, department, program, entry_year, graduation_year, status, email, phone, created_at, updated_at"

// MasterRepository manages persistence for master records.
type MasterRepository struct {
	db *sqlx.DB
}

// NewMasterRepository constructs a MasterRepository.
func NewMasterRepository(db *sqlx.DB) *MasterRepository {
	return &MasterRepository{db: db}
}

func buildMasterWhere(filter models.MasterFilter) (string, []interface{}) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(department) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Department))
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(program) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Program))
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.GraduationYear != nil {
		conditions = append(conditions, fmt.Sprintf("graduation_year = $%d", len(args)+1))
		args = append(args, *filter.GraduationYear)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR nim LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
	}
	return "FROM master_records WHERE " + strings.Join(conditions, " AND "), args
}

// List returns master records matching the provided filters.
func (r *MasterRepository) List(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, int, error) {
	base, args := buildMasterWhere(filter)

	allowedSorts := map[string]string{
		"full_name":       "full_name",
		"nim":             "nim",
		"graduation_year": "graduation_year",
		"created_at":      "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id LIMIT %d OFFSET %d", masterColumns, base, column, order, size, offset)
	var records []models.MasterRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list master records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count master records: %w", err)
	}
	return records, total, nil
}

// ListAll returns every record matching filter ordered by name.
func (r *MasterRepository) ListAll(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, error) {
	base, args := buildMasterWhere(filter)
	query := fmt.Sprintf("SELECT %s %s ORDER BY LOWER(full_name) ASC, id", masterColumns, base)
	var records []models.MasterRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list all master records: %w", err)
	}
	return records, nil
}

// FindByID fetches a master record by ID.
func (r *MasterRepository) FindByID(ctx context.Context, id string) (*models.MasterRecord, error) {
	var record models.MasterRecord
	if err := r.db.GetContext(ctx, &record, "SELECT "+masterColumns+" FROM master_records WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByNameAndYear returns records whose name contains name (case-insensitive)
// and whose graduation year equals year.
func (r *MasterRepository) FindByNameAndYear(ctx context.Context, name string, year int) ([]models.MasterRecord, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	records := []models.MasterRecord{}
	if needle == "" {
		return records, nil
	}
	query := "SELECT " + masterColumns + " FROM master_records WHERE LOWER(full_name) LIKE $1 AND graduation_year = $2 ORDER BY LOWER(full_name) ASC, id"
	if err := r.db.SelectContext(ctx, &records, query, "%"+escapeLike(needle)+"%", year); err != nil {
		return nil, fmt.Errorf("find master by name and year: %w", err)
	}
	return records, nil
}

// ExistsByNIM checks whether nim is used, optionally excluding one record.
func (r *MasterRepository) ExistsByNIM(ctx context.Context, nim string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM master_records WHERE nim = $1"
	args := []interface{}{nim}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check nim: %w", err)
	}
	return true, nil
}

// Create inserts a new master record.
func (r *MasterRepository) Create(ctx context.Context, record *models.MasterRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO master_records (id, full_name, nim, department, program, entry_year, graduation_year, status, email, phone, created_at, updated_at)
        VALUES (:id, :full_name, :nim, :department, :program, :entry_year, :graduation_year, :status, :email, :phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		if isNIMViolation(err) {
			return models.ErrDuplicateNIM
		}
		return fmt.Errorf("create master record: %w", err)
	}
	return nil
}

// Update modifies an existing master record. created_at is never rewritten.
func (r *MasterRepository) Update(ctx context.Context, record *models.MasterRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE master_records SET full_name = :full_name, nim = :nim, department = :department, program = :program, entry_year = :entry_year,
        graduation_year = :graduation_year, status = :status, email = :email, phone = :phone, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		if isNIMViolation(err) {
			return models.ErrDuplicateNIM
		}
		return fmt.Errorf("update master record: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a master record and every career and achievement that
// references it within one transaction.
func (r *MasterRepository) Delete(ctx context.Context, id string) (models.CascadeResult, error) {
	var result models.CascadeResult
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin master delete tx: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM achievement_records WHERE master_id = $1", id)
	if err != nil {
		_ = tx.Rollback()
		return result, fmt.Errorf("delete master achievements: %w", err)
	}
	result.Achievements = affected(res)

	res, err = tx.ExecContext(ctx, "DELETE FROM career_records WHERE master_id = $1", id)
	if err != nil {
		_ = tx.Rollback()
		return result, fmt.Errorf("delete master careers: %w", err)
	}
	result.Careers = affected(res)

	res, err = tx.ExecContext(ctx, "DELETE FROM master_records WHERE id = $1", id)
	if err != nil {
		_ = tx.Rollback()
		return result, fmt.Errorf("delete master record: %w", err)
	}
	if affected(res) == 0 {
		_ = tx.Rollback()
		return models.CascadeResult{}, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit master delete tx: %w", err)
	}
	return result, nil
}

func affected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

func requireAffected(res sql.Result) error {
	if affected(res) == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isNIMViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && strings.Contains(pqErr.Constraint, "nim")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}
