package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

type masterLister interface {
	ListAll(ctx context.Context, filter models.MasterFilter) ([]models.MasterRecord, error)
	FindByID(ctx context.Context, id string) (*models.MasterRecord, error)
}

type careerLister interface {
	ListAll(ctx context.Context) ([]models.CareerRecord, error)
	ListByMasterID(ctx context.Context, masterID string) ([]models.CareerRecord, error)
}

type achievementLister interface {
	ListAll(ctx context.Context) ([]models.AchievementRecord, error)
	ListByMasterID(ctx context.Context, masterID string) ([]models.AchievementRecord, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
	TopN     int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Masters      masterLister
	Careers      careerLister
	Achievements achievementLister
	Cache        *CacheService
	Logger       *zap.Logger
	Config       DashboardServiceConfig
}

// DashboardService composes the admin overview and the alumni dashboard.
type DashboardService struct {
	masters      masterLister
	careers      careerLister
	achievements achievementLister
	cache        *CacheService
	logger       *zap.Logger
	now          func() time.Time
	cfg          DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		masters:      params.Masters,
		careers:      params.Careers,
		achievements: params.Achievements,
		cache:        params.Cache,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
	}
}

// Admin returns the aggregated overview for filter and reports whether it
// was served from cache.
func (s *DashboardService) Admin(ctx context.Context, filter models.AlumniFilter) (*dto.AdminDashboardResponse, bool, error) {
	key := adminDashboardKey(filter)
	var cached dto.AdminDashboardResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	summary, err := s.composeAdmin(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

func (s *DashboardService) composeAdmin(ctx context.Context, filter models.AlumniFilter) (*dto.AdminDashboardResponse, error) {
	masters, err := s.masters.ListAll(ctx, filter.MasterFilter())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master records")
	}
	careers, err := s.careers.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load careers")
	}
	achievements, err := s.achievements.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load achievements")
	}

	inScope := make(map[string]struct{}, len(masters))
	for _, m := range masters {
		inScope[m.ID] = struct{}{}
	}
	current := CurrentCareers(careers)
	responded := 0
	for id := range current {
		if _, ok := inScope[id]; ok {
			responded++
		}
	}
	scoped := make([]models.AchievementRecord, 0, len(achievements))
	for _, a := range achievements {
		if _, ok := inScope[a.MasterID]; ok {
			scoped = append(scoped, a)
		}
	}

	return &dto.AdminDashboardResponse{
		Filter:        filter,
		TotalAlumni:   len(masters),
		Responded:     responded,
		ResponseRate:  responseRate(responded, len(masters)),
		ByStatus:      CountByStatus(masters, current),
		TopIndustries: TopIndustries(masters, current, s.cfg.TopN),
		TrendByYear:   TrendByYear(masters, current),
		ByProgram:     CountByProgram(masters),
		Achievements:  models.CountAchievements(scoped),
		GeneratedAt:   s.now().UTC(),
	}, nil
}

// Alumni returns the personal dashboard of masterID.
func (s *DashboardService) Alumni(ctx context.Context, masterID string) (*dto.AlumniDashboardResponse, error) {
	master, err := s.masters.FindByID(ctx, masterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "master record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load master record")
	}
	careers, err := s.careers.ListByMasterID(ctx, masterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load careers")
	}
	achievements, err := s.achievements.ListByMasterID(ctx, masterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load achievements")
	}
	models.SortCareers(careers)

	featured := make([]models.AchievementRecord, 0)
	for _, a := range achievements {
		if a.Featured {
			featured = append(featured, a)
		}
	}
	stats := models.CountAchievements(achievements)
	return &dto.AlumniDashboardResponse{
		Master:            *master,
		CurrentCareer:     models.CurrentCareer(careers),
		Careers:           careers,
		AchievementStats:  stats,
		TotalAchievements: stats.Total(),
		Featured:          featured,
	}, nil
}

func adminDashboardKey(filter models.AlumniFilter) string {
	year := "all"
	if filter.GraduationYear != nil {
		year = fmt.Sprintf("%d", *filter.GraduationYear)
	}
	return fmt.Sprintf("%sadmin:%s:%s:%s", cacheKeyDashboard,
		strings.ToLower(strings.TrimSpace(filter.Department)),
		strings.ToLower(strings.TrimSpace(filter.Program)),
		year,
	)
}

func responseRate(responded, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(responded)/float64(total)*10000) / 100
}
