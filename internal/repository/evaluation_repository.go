package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sipal-api/internal/models"
)

const evaluationColumns = `id, student_id, student_name, student_nim, student_program, student_graduation_year,
        evaluator_name, evaluator_position, evaluator_email, company_name,
        rating_technical, rating_work_ethic, rating_communication, rating_initiative, rating_overall,
        feedback, submitted_at`

type evaluationRow struct {
	ID                    string    `db:"id"`
	StudentID             string    `db:"student_id"`
	StudentName           string    `db:"student_name"`
	StudentNIM            string    `db:"student_nim"`
	StudentProgram        string    `db:"student_program"`
	StudentGraduationYear *int      `db:"student_graduation_year"`
	EvaluatorName         string    `db:"evaluator_name"`
	EvaluatorPosition     string    `db:"evaluator_position"`
	EvaluatorEmail        string    `db:"evaluator_email"`
	CompanyName           string    `db:"company_name"`
	RatingTechnical       int       `db:"rating_technical"`
	RatingWorkEthic       int       `db:"rating_work_ethic"`
	RatingCommunication   int       `db:"rating_communication"`
	RatingInitiative      int       `db:"rating_initiative"`
	RatingOverall         int       `db:"rating_overall"`
	Feedback              string    `db:"feedback"`
	SubmittedAt           time.Time `db:"submitted_at"`
}

func evaluationRowFrom(e *models.EvaluationSubmission) evaluationRow {
	return evaluationRow{
		ID:                    e.ID,
		StudentID:             e.Student.ID,
		StudentName:           e.Student.FullName,
		StudentNIM:            e.Student.NIM,
		StudentProgram:        e.Student.Program,
		StudentGraduationYear: e.Student.GraduationYear,
		EvaluatorName:         e.EvaluatorName,
		EvaluatorPosition:     e.EvaluatorPosition,
		EvaluatorEmail:        e.EvaluatorEmail,
		CompanyName:           e.CompanyName,
		RatingTechnical:       e.Ratings.TechnicalCompetence,
		RatingWorkEthic:       e.Ratings.WorkEthic,
		RatingCommunication:   e.Ratings.Communication,
		RatingInitiative:      e.Ratings.Initiative,
		RatingOverall:         e.Ratings.Overall,
		Feedback:              e.Feedback,
		SubmittedAt:           e.SubmittedAt,
	}
}

func (row evaluationRow) toModel() models.EvaluationSubmission {
	return models.EvaluationSubmission{
		ID: row.ID,
		Student: models.StudentSnapshot{
			ID:             row.StudentID,
			FullName:       row.StudentName,
			NIM:            row.StudentNIM,
			Program:        row.StudentProgram,
			GraduationYear: row.StudentGraduationYear,
		},
		EvaluatorName:     row.EvaluatorName,
		EvaluatorPosition: row.EvaluatorPosition,
		EvaluatorEmail:    row.EvaluatorEmail,
		CompanyName:       row.CompanyName,
		Ratings: models.Ratings{
			TechnicalCompetence: row.RatingTechnical,
			WorkEthic:           row.RatingWorkEthic,
			Communication:       row.RatingCommunication,
			Initiative:          row.RatingInitiative,
			Overall:             row.RatingOverall,
		},
		Feedback:    row.Feedback,
		SubmittedAt: row.SubmittedAt,
	}
}

// EvaluationRepository persists employer evaluations.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs an EvaluationRepository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create stores a submission.
func (r *EvaluationRepository) Create(ctx context.Context, e *models.EvaluationSubmission) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluation_submissions (id, student_id, student_name, student_nim, student_program, student_graduation_year,
        evaluator_name, evaluator_position, evaluator_email, company_name,
        rating_technical, rating_work_ethic, rating_communication, rating_initiative, rating_overall, feedback, submitted_at)
        VALUES (:id, :student_id, :student_name, :student_nim, :student_program, :student_graduation_year,
        :evaluator_name, :evaluator_position, :evaluator_email, :company_name,
        :rating_technical, :rating_work_ethic, :rating_communication, :rating_initiative, :rating_overall, :feedback, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluationRowFrom(e)); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// List returns the newest submissions first.
func (r *EvaluationRepository) List(ctx context.Context, filter models.EvaluationFilter) ([]models.EvaluationSubmission, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("student_program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	base := "FROM evaluation_submissions WHERE " + strings.Join(conditions, " AND ")
	page, size := models.NormalizePage(filter.Page, filter.PageSize)

	var rows []evaluationRow
	query := fmt.Sprintf("SELECT %s %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d", evaluationColumns, base, size, (page-1)*size)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list evaluations: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count evaluations: %w", err)
	}

	out := make([]models.EvaluationSubmission, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, total, nil
}

// Summary averages every rating category.
func (r *EvaluationRepository) Summary(ctx context.Context) (models.EvaluationSummary, error) {
	var summary models.EvaluationSummary
	row := struct {
		Count         int     `db:"count"`
		Technical     float64 `db:"technical"`
		WorkEthic     float64 `db:"work_ethic"`
		Communication float64 `db:"communication"`
		Initiative    float64 `db:"initiative"`
		Overall       float64 `db:"overall"`
	}{}
	const query = `SELECT COUNT(*) AS count,
        COALESCE(AVG(rating_technical), 0) AS technical,
        COALESCE(AVG(rating_work_ethic), 0) AS work_ethic,
        COALESCE(AVG(rating_communication), 0) AS communication,
        COALESCE(AVG(rating_initiative), 0) AS initiative,
        COALESCE(AVG(rating_overall), 0) AS overall
        FROM evaluation_submissions`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return summary, fmt.Errorf("summarise evaluations: %w", err)
	}
	summary = models.EvaluationSummary{
		Count:               row.Count,
		TechnicalCompetence: row.Technical,
		WorkEthic:           row.WorkEthic,
		Communication:       row.Communication,
		Initiative:          row.Initiative,
		Overall:             row.Overall,
	}
	return summary, nil
}
