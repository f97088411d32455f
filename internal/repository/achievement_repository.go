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

const achievementColumns = "id, master_id, category, featured, details, attachments, created_at, updated_at"

type achievementRow struct {
	ID          string             `db:"id"`
	MasterID    string             `db:"master_id"`
	Category    string             `db:"category"`
	Featured    bool               `db:"featured"`
	Details     []byte             `db:"details"`
	Attachments models.Attachments `db:"attachments"`
	CreatedAt   time.Time          `db:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at"`
}

func (row achievementRow) toModel() (models.AchievementRecord, error) {
	category := models.AchievementCategory(row.Category)
	detail, err := models.DecodeAchievementDetail(category, row.Details)
	if err != nil {
		return models.AchievementRecord{}, fmt.Errorf("achievement %s: %w", row.ID, err)
	}
	attachments := row.Attachments
	if attachments == nil {
		attachments = models.Attachments{}
	}
	return models.AchievementRecord{
		ID:          row.ID,
		MasterID:    row.MasterID,
		Category:    category,
		Featured:    row.Featured,
		Detail:      detail,
		Attachments: attachments,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func achievementRowFrom(record *models.AchievementRecord) (achievementRow, error) {
	details, err := json.Marshal(record.Detail)
	if err != nil {
		return achievementRow{}, fmt.Errorf("marshal achievement detail: %w", err)
	}
	return achievementRow{
		ID:          record.ID,
		MasterID:    record.MasterID,
		Category:    string(record.Category),
		Featured:    record.Featured,
		Details:     details,
		Attachments: record.Attachments,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}, nil
}

func achievementRowsToModels(rows []achievementRow) ([]models.AchievementRecord, error) {
	out := make([]models.AchievementRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// AchievementRepository manages persistence for achievements and their inline attachments.
type AchievementRepository struct {
	db *sqlx.DB
}

// NewAchievementRepository constructs an AchievementRepository.
func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// ListByMasterID returns a master's achievements oldest first.
func (r *AchievementRepository) ListByMasterID(ctx context.Context, masterID string) ([]models.AchievementRecord, error) {
	var rows []achievementRow
	query := "SELECT " + achievementColumns + " FROM achievement_records WHERE master_id = $1 ORDER BY created_at ASC, id"
	if err := r.db.SelectContext(ctx, &rows, query, masterID); err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievementRowsToModels(rows)
}

// ListAll returns every achievement.
func (r *AchievementRepository) ListAll(ctx context.Context) ([]models.AchievementRecord, error) {
	var rows []achievementRow
	query := "SELECT " + achievementColumns + " FROM achievement_records ORDER BY created_at ASC, id"
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all achievements: %w", err)
	}
	return achievementRowsToModels(rows)
}

// FindByID fetches an achievement by ID.
func (r *AchievementRepository) FindByID(ctx context.Context, id string) (*models.AchievementRecord, error) {
	var row achievementRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+achievementColumns+" FROM achievement_records WHERE id = $1", id); err != nil {
		return nil, err
	}
	record, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts an achievement.
func (r *AchievementRepository) Create(ctx context.Context, record *models.AchievementRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Attachments == nil {
		record.Attachments = models.Attachments{}
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	row, err := achievementRowFrom(record)
	if err != nil {
		return err
	}
	const query = `INSERT INTO achievement_records (id, master_id, category, featured, details, attachments, created_at, updated_at)
        VALUES (:id, :master_id, :category, :featured, :details, :attachments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

// Update rewrites the category, featured flag and detail. The attachment list
// is left alone; it changes only through AppendAttachments and RemoveAttachment.
func (r *AchievementRepository) Update(ctx context.Context, record *models.AchievementRecord) error {
	record.UpdatedAt = time.Now().UTC()
	row, err := achievementRowFrom(record)
	if err != nil {
		return err
	}
	const query = `UPDATE achievement_records SET category = :category, featured = :featured, details = :details, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update achievement: %w", err)
	}
	return requireAffected(res)
}

// AppendAttachments appends atts inside a transaction holding the row lock,
// so concurrent uploads serialise. It returns the stored record and how many
// of atts fit under maxCount.
func (r *AchievementRepository) AppendAttachments(ctx context.Context, id string, atts models.Attachments, maxCount int) (*models.AchievementRecord, int, error) {
	var added int
	record, err := r.mutateAttachments(ctx, id, func(current models.Attachments) (models.Attachments, error) {
		next, n := current.AppendUpTo(atts, maxCount)
		added = n
		return next, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return record, added, nil
}

// RemoveAttachment drops the attachment at index under the row lock.
func (r *AchievementRepository) RemoveAttachment(ctx context.Context, id string, index int) (*models.AchievementRecord, error) {
	return r.mutateAttachments(ctx, id, func(current models.Attachments) (models.Attachments, error) {
		return current.Without(index)
	})
}

func (r *AchievementRepository) mutateAttachments(ctx context.Context, id string, mutate func(models.Attachments) (models.Attachments, error)) (*models.AchievementRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attachment tx: %w", err)
	}
	var row achievementRow
	if err := tx.GetContext(ctx, &row, "SELECT "+achievementColumns+" FROM achievement_records WHERE id = $1 FOR UPDATE", id); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	record, err := row.toModel()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	next, err := mutate(record.Attachments)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	record.Attachments = next
	record.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, "UPDATE achievement_records SET attachments = $1, updated_at = $2 WHERE id = $3", record.Attachments, record.UpdatedAt, id); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("update attachments: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attachment tx: %w", err)
	}
	return &record, nil
}

// Delete removes an achievement; its attachments go with the row.
func (r *AchievementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM achievement_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete achievement: %w", err)
	}
	return requireAffected(res)
}

// StatsByMasterID counts achievements per category, zero-filling the rest.
func (r *AchievementRepository) StatsByMasterID(ctx context.Context, masterID string) (models.AchievementStats, error) {
	var rows []struct {
		Category string `db:"category"`
		Total    int    `db:"total"`
	}
	query := "SELECT category, COUNT(*) AS total FROM achievement_records WHERE master_id = $1 GROUP BY category"
	if err := r.db.SelectContext(ctx, &rows, query, masterID); err != nil {
		return nil, fmt.Errorf("achievement stats: %w", err)
	}
	stats := models.NewAchievementStats()
	for _, row := range rows {
		category := models.AchievementCategory(row.Category)
		if category.Valid() {
			stats[category] = row.Total
		}
	}
	return stats, nil
}
