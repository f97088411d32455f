package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sipal-api/internal/models"
)

const careerColumns = "id, master_id, status, record_year, is_current, details, created_at, updated_at"

// careerRow is the storage shape of a career record; the status-specific
// payload lives in a JSONB column.
type careerRow struct {
	ID         string    `db:"id"`
	MasterID   string    `db:"master_id"`
	Status     string    `db:"status"`
	RecordYear int       `db:"record_year"`
	IsCurrent  bool      `db:"is_current"`
	Details    []byte    `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row careerRow) toModel() (models.CareerRecord, error) {
	status := models.CareerStatus(row.Status)
	detail, err := models.DecodeCareerDetail(status, row.Details)
	if err != nil {
		return models.CareerRecord{}, fmt.Errorf("career %s: %w", row.ID, err)
	}
	return models.CareerRecord{
		ID:         row.ID,
		MasterID:   row.MasterID,
		Status:     status,
		RecordYear: row.RecordYear,
		IsCurrent:  row.IsCurrent,
		Detail:     detail,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func careerRowFrom(record *models.CareerRecord) (careerRow, error) {
	details, err := json.Marshal(record.Detail)
	if err != nil {
		return careerRow{}, fmt.Errorf("marshal career detail: %w", err)
	}
	return careerRow{
		ID:         record.ID,
		MasterID:   record.MasterID,
		Status:     string(record.Status),
		RecordYear: record.RecordYear,
		IsCurrent:  record.IsCurrent,
		Details:    details,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}, nil
}

func careerRowsToModels(rows []careerRow) ([]models.CareerRecord, error) {
	out := make([]models.CareerRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// CareerRepository manages persistence for career records.
type CareerRepository struct {
	db *sqlx.DB
}

// NewCareerRepository constructs a CareerRepository.
func NewCareerRepository(db *sqlx.DB) *CareerRepository {
	return &CareerRepository{db: db}
}

// ListByMasterID returns a master's careers ordered by record year.
func (r *CareerRepository) ListByMasterID(ctx context.Context, masterID string) ([]models.CareerRecord, error) {
	var rows []careerRow
	query := "SELECT " + careerColumns + " FROM career_records WHERE master_id = $1 ORDER BY record_year ASC, created_at ASC"
	if err := r.db.SelectContext(ctx, &rows, query, masterID); err != nil {
		return nil, fmt.Errorf("list careers: %w", err)
	}
	return careerRowsToModels(rows)
}

// ListAll returns every career record for aggregation.
func (r *CareerRepository) ListAll(ctx context.Context) ([]models.CareerRecord, error) {
	var rows []careerRow
	query := "SELECT " + careerColumns + " FROM career_records ORDER BY master_id, record_year ASC, created_at ASC"
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all careers: %w", err)
	}
	return careerRowsToModels(rows)
}

// FindByID fetches a career record by ID.
func (r *CareerRepository) FindByID(ctx context.Context, id string) (*models.CareerRecord, error) {
	var row careerRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+careerColumns+" FROM career_records WHERE id = $1", id); err != nil {
		return nil, err
	}
	record, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a career record. The foreign key rejects unknown masters.
func (r *CareerRepository) Create(ctx context.Context, record *models.CareerRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	row, err := careerRowFrom(record)
	if err != nil {
		return err
	}
	const query = `INSERT INTO career_records (id, master_id, status, record_year, is_current, details, created_at, updated_at)
        VALUES (:id, :master_id, :status, :record_year, :is_current, :details, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create career: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a career record.
func (r *CareerRepository) Update(ctx context.Context, record *models.CareerRecord) error {
	record.UpdatedAt = time.Now().UTC()
	row, err := careerRowFrom(record)
	if err != nil {
		return err
	}
	const query = `UPDATE career_records SET status = :status, record_year = :record_year, is_current = :is_current, details = :details, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update career: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a career record.
func (r *CareerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM career_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete career: %w", err)
	}
	return requireAffected(res)
}
