package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/repository/memstore"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

type stubCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func newDashboardFixture(t *testing.T, cache *CacheService) (*DashboardService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := NewDashboardService(DashboardServiceParams{
		Masters:      store.Masters(),
		Careers:      store.Careers(),
		Achievements: store.Achievements(),
		Cache:        cache,
		Logger:       zap.NewNop(),
	})
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestDashboardServiceAdminComposesAndCaches(t *testing.T) {
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop())
	svc, store := newDashboardFixture(t, cacheSvc)
	ctx := context.Background()

	siti := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	seedAlumnus(t, store, "Budi Santoso", "20190002", 2023)
	require.NoError(t, store.Careers().Create(ctx, &models.CareerRecord{
		MasterID: siti.ID, Status: models.CareerWorking, RecordYear: 2023, IsCurrent: true,
		Detail: models.WorkingDetail{CompanyName: "PT Maju", Industry: "Teknologi"},
	}))
	require.NoError(t, store.Achievements().Create(ctx, &models.AchievementRecord{
		MasterID: siti.ID, Category: models.CategoryCompetition,
		Detail: models.CompetitionDetail{Name: "Gemastik"},
	}))

	result, hit, err := svc.Admin(ctx, models.AlumniFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, result.TotalAlumni)
	assert.Equal(t, 1, result.Responded)
	assert.Equal(t, 50.0, result.ResponseRate)
	assert.Equal(t, []dto.IndustryCount{{Industry: "Teknologi", Count: 1}}, result.TopIndustries)
	assert.Equal(t, 1, result.Achievements[models.CategoryCompetition])

	cached, hit, err := svc.Admin(ctx, models.AlumniFilter{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, result.TotalAlumni, cached.TotalAlumni)
	assert.Equal(t, result.ByStatus, cached.ByStatus)

	cacheSvc.InvalidateDashboards(ctx)
	assert.Equal(t, []string{"sipal:dashboard:*"}, cacheRepo.deleted)
	_, hit, err = svc.Admin(ctx, models.AlumniFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDashboardServiceAdminFilters(t *testing.T) {
	svc, store := newDashboardFixture(t, nil)
	seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	seedAlumnus(t, store, "Budi Santoso", "20190002", 2022)

	result, hit, err := svc.Admin(context.Background(), models.AlumniFilter{GraduationYear: intPtr(2022)})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, result.TotalAlumni)
	assert.Zero(t, result.ResponseRate)
	require.Len(t, result.TrendByYear, 1)
	assert.Equal(t, 2022, result.TrendByYear[0].Year)
}

func TestDashboardServiceAlumni(t *testing.T) {
	svc, store := newDashboardFixture(t, nil)
	ctx := context.Background()
	siti := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	require.NoError(t, store.Careers().Create(ctx, &models.CareerRecord{
		MasterID: siti.ID, Status: models.CareerSearching, RecordYear: 2023,
		Detail: models.SearchingDetail{TargetLocation: "Bandung", TargetField: "IT"},
	}))
	require.NoError(t, store.Achievements().Create(ctx, &models.AchievementRecord{
		MasterID: siti.ID, Category: models.CategoryCompetition, Featured: true,
		Detail: models.CompetitionDetail{Name: "Gemastik"},
	}))

	result, err := svc.Alumni(ctx, siti.ID)
	require.NoError(t, err)
	assert.Equal(t, siti.ID, result.Master.ID)
	require.NotNil(t, result.CurrentCareer)
	assert.Equal(t, models.CareerSearching, result.CurrentCareer.Status)
	assert.Equal(t, 1, result.TotalAchievements)
	assert.Len(t, result.Featured, 1)

	_, err = svc.Alumni(ctx, "missing")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}
