package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/repository/memstore"
)

// MasterStore persists master records. Delete cascades to careers and
// achievements atomically.
type MasterStore interface {
	List(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, int, error)
	ListAll(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, error)
	FindByID(ctx context.Context, id string) (*models.MasterRecord, error)
	FindByNameAndYear(ctx context.Context, name string, year int) ([]models.MasterRecord, error)
	ExistsByNIM(ctx context.Context, nim string, excludeID string) (bool, error)
	Create(ctx context.Context, record *models.MasterRecord) error
	Update(ctx context.Context, record *models.MasterRecord) error
	Delete(ctx context.Context, id string) (models.CascadeResult, error)
}

// CareerStore persists career records.
type CareerStore interface {
	ListByMasterID(ctx context.Context, masterID string) ([]models.CareerRecord, error)
	ListAll(ctx context.Context) ([]models.CareerRecord, error)
	FindByID(ctx context.Context, id string) (*models.CareerRecord, error)
	Create(ctx context.Context, record *models.CareerRecord) error
	Update(ctx context.Context, record *models.CareerRecord) error
	Delete(ctx context.Context, id string) error
}

// AchievementStore persists achievements and their embedded attachments.
type AchievementStore interface {
	ListByMasterID(ctx context.Context, masterID string) ([]models.AchievementRecord, error)
	ListAll(ctx context.Context) ([]models.AchievementRecord, error)
	FindByID(ctx context.Context, id string) (*models.AchievementRecord, error)
	Create(ctx context.Context, record *models.AchievementRecord) error
	Update(ctx context.Context, record *models.AchievementRecord) error
	Delete(ctx context.Context, id string) error
	StatsByMasterID(ctx context.Context, masterID string) (models.AchievementStats, error)
	AppendAttachments(ctx context.Context, id string, atts models.Attachments, maxCount int) (*models.AchievementRecord, int, error)
	RemoveAttachment(ctx context.Context, id string, index int) (*models.AchievementRecord, error)
}

// EvaluationStore persists employer evaluations.
type EvaluationStore interface {
	Create(ctx context.Context, e *models.EvaluationSubmission) error
	List(ctx context.Context, filter models.EvaluationFilter) ([]models.EvaluationSubmission, int, error)
	Summary(ctx context.Context) (models.EvaluationSummary, error)
}

// Stores is one consistent backing for every record store.
type Stores struct {
	Masters      MasterStore
	Careers      CareerStore
	Achievements AchievementStore
	Evaluations  EvaluationStore
}

// NewPostgresStores backs every store with PostgreSQL.
func NewPostgresStores(db *sqlx.DB) Stores {
	return Stores{
		Masters:      NewMasterRepository(db),
		Careers:      NewCareerRepository(db),
		Achievements: NewAchievementRepository(db),
		Evaluations:  NewEvaluationRepository(db),
	}
}

// NewMemoryStores backs every store with the process-local store.
func NewMemoryStores(mem *memstore.Store) Stores {
	return Stores{
		Masters:      mem.Masters(),
		Careers:      mem.Careers(),
		Achievements: mem.Achievements(),
		Evaluations:  mem.Evaluations(),
	}
}

var (
	_ MasterStore      = (*MasterRepository)(nil)
	_ CareerStore      = (*CareerRepository)(nil)
	_ AchievementStore = (*AchievementRepository)(nil)
	_ EvaluationStore  = (*EvaluationRepository)(nil)
	_ MasterStore      = (*memstore.MasterStore)(nil)
	_ CareerStore      = (*memstore.CareerStore)(nil)
	_ AchievementStore = (*memstore.AchievementStore)(nil)
	_ EvaluationStore  = (*memstore.EvaluationStore)(nil)
)

// SessionStore keeps alumni identity selections.
type SessionStore interface {
	Save(ctx context.Context, session models.AlumniSession) error
	Get(ctx context.Context, id string) (*models.AlumniSession, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ SessionStore = (*SessionRepository)(nil)
	_ SessionStore = (*memstore.SessionStore)(nil)
)
