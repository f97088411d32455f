package memstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sipal-api/internal/models"
)

func year(v int) *int { return &v }

func seedMaster(t *testing.T, store *Store, name, nim string, grad int) models.MasterRecord {
	t.Helper()
	m := models.MasterRecord{
		FullName:       name,
		NIM:            nim,
		Department:     "Teknik",
		Program:        "Informatika",
		EntryYear:      grad - 4,
		GraduationYear: year(grad),
		Status:         models.MasterStatusAlumni,
	}
	require.NoError(t, store.Masters().Create(context.Background(), &m))
	return m
}

func TestFindByNameAndYearAfterCreate(t *testing.T) {
	store := New()
	created := seedMaster(t, store, "Siti Amalia", "20210001", 2023)
	seedMaster(t, store, "Budi Santoso", "20210002", 2023)

	ctx := context.Background()
	found, err := store.Masters().FindByNameAndYear(ctx, "Siti Amalia", 2023)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created, found[0])

	found, err = store.Masters().FindByNameAndYear(ctx, "siti", 2023)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = store.Masters().FindByNameAndYear(ctx, "Siti Amalia", 2022)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestExistsByNIMExcludesSelf(t *testing.T) {
	store := New()
	m := seedMaster(t, store, "Siti Amalia", "20210001", 2023)

	exists, err := store.Masters().ExistsByNIM(context.Background(), "20210001", m.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.Masters().ExistsByNIM(context.Background(), "20210001", "")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMasterWritesRejectDuplicateNIM(t *testing.T) {
	store := New()
	ctx := context.Background()
	seedMaster(t, store, "Siti Amalia", "20210001", 2023)
	other := seedMaster(t, store, "Budi Santoso", "20210002", 2023)

	dup := models.MasterRecord{FullName: "Rina", NIM: "20210001", Department: "Teknik", Program: "Informatika", EntryYear: 2019, Status: models.MasterStatusAlumni}
	assert.ErrorIs(t, store.Masters().Create(ctx, &dup), models.ErrDuplicateNIM)

	other.NIM = "20210001"
	assert.ErrorIs(t, store.Masters().Update(ctx, &other), models.ErrDuplicateNIM)

	stored, err := store.Masters().FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "20210002", stored.NIM)
}

func TestDeleteMasterCascades(t *testing.T) {
	store := New()
	ctx := context.Background()
	m1 := seedMaster(t, store, "Siti Amalia", "20210001", 2023)
	m2 := seedMaster(t, store, "Budi Santoso", "20210002", 2023)

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Careers().Create(ctx, &models.CareerRecord{MasterID: m1.ID, Status: models.CareerSearching, RecordYear: 2023 + i,
			Detail: models.SearchingDetail{TargetLocation: "Jakarta", TargetField: "Data", MonthsSearching: i}}))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Achievements().Create(ctx, &models.AchievementRecord{MasterID: m1.ID, Category: models.CategoryPortfolio,
			Detail: models.PortfolioDetail{ProjectName: "Proyek", Course: "RPL"}}))
	}
	require.NoError(t, store.Achievements().Create(ctx, &models.AchievementRecord{MasterID: m2.ID, Category: models.CategoryPortfolio,
		Detail: models.PortfolioDetail{ProjectName: "Lain", Course: "RPL"}}))

	result, err := store.Masters().Delete(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CascadeResult{Careers: 2, Achievements: 3}, result)

	careers, _ := store.Careers().ListByMasterID(ctx, m1.ID)
	achievements, _ := store.Achievements().ListByMasterID(ctx, m1.ID)
	assert.Empty(t, careers)
	assert.Empty(t, achievements)

	others, _ := store.Achievements().ListByMasterID(ctx, m2.ID)
	assert.Len(t, others, 1)

	_, err = store.Masters().Delete(ctx, m1.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCareerCreateRoundTripAndOrdering(t *testing.T) {
	store := New()
	ctx := context.Background()
	m := seedMaster(t, store, "Siti Amalia", "20210001", 2023)

	later := models.CareerRecord{MasterID: m.ID, Status: models.CareerWorking, RecordYear: 2025, IsCurrent: true,
		Detail: models.WorkingDetail{CompanyName: "PT A", JobTitle: "Analyst", CompanyLocation: "Jakarta", Industry: "Keuangan", StartYear: 2024, CurrentlyEmployed: true}}
	earlier := models.CareerRecord{MasterID: m.ID, Status: models.CareerSearching, RecordYear: 2023,
		Detail: models.SearchingDetail{TargetLocation: "Jakarta", TargetField: "Keuangan", MonthsSearching: 3}}
	require.NoError(t, store.Careers().Create(ctx, &later))
	require.NoError(t, store.Careers().Create(ctx, &earlier))

	list, err := store.Careers().ListByMasterID(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, earlier.ID, list[0].ID)
	assert.Equal(t, later.Detail, list[1].Detail)
	assert.Equal(t, later.Status, list[1].Status)
	assert.False(t, list[1].CreatedAt.IsZero())
}

func TestCareerCreateRejectsUnknownMaster(t *testing.T) {
	store := New()
	err := store.Careers().Create(context.Background(), &models.CareerRecord{MasterID: "ghost", Status: models.CareerSearching})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStatsByMasterID(t *testing.T) {
	store := New()
	ctx := context.Background()
	m := seedMaster(t, store, "Siti Amalia", "20210001", 2023)
	add := func(category models.AchievementCategory, detail models.AchievementDetail, n int) {
		for i := 0; i < n; i++ {
			require.NoError(t, store.Achievements().Create(ctx, &models.AchievementRecord{MasterID: m.ID, Category: category, Detail: detail}))
		}
	}
	add(models.CategoryCompetition, models.CompetitionDetail{Name: "Gemastik"}, 2)
	add(models.CategoryPublication, models.PublicationDetail{Title: "Paper"}, 5)

	stats, err := store.Achievements().StatsByMasterID(ctx, m.ID)
	require.NoError(t, err)
	expected := models.NewAchievementStats()
	expected[models.CategoryCompetition] = 2
	expected[models.CategoryPublication] = 5
	assert.Equal(t, expected, stats)
}

func TestAchievementAttachmentsAreCopied(t *testing.T) {
	store := New()
	ctx := context.Background()
	m := seedMaster(t, store, "Siti Amalia", "20210001", 2023)
	record := models.AchievementRecord{MasterID: m.ID, Category: models.CategoryPortfolio, Detail: models.PortfolioDetail{ProjectName: "P", Course: "C"},
		Attachments: models.Attachments{{FileName: "a.png"}}}
	require.NoError(t, store.Achievements().Create(ctx, &record))

	record.Attachments[0].FileName = "mutated.png"
	stored, err := store.Achievements().FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", stored.Attachments[0].FileName)
}

func TestAchievementAppendAndRemoveAttachments(t *testing.T) {
	store := New()
	ctx := context.Background()
	m := seedMaster(t, store, "Siti Amalia", "20210001", 2023)
	record := models.AchievementRecord{MasterID: m.ID, Category: models.CategoryPortfolio, Detail: models.PortfolioDetail{ProjectName: "P", Course: "C"},
		Attachments: models.Attachments{{FileName: "a.png"}}}
	require.NoError(t, store.Achievements().Create(ctx, &record))

	updated, added, err := store.Achievements().AppendAttachments(ctx, record.ID, models.Attachments{{FileName: "b.png"}, {FileName: "c.png"}}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	require.Len(t, updated.Attachments, 2)
	assert.Equal(t, "b.png", updated.Attachments[1].FileName)

	updated, err = store.Achievements().RemoveAttachment(ctx, record.ID, 0)
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "b.png", updated.Attachments[0].FileName)

	_, err = store.Achievements().RemoveAttachment(ctx, record.ID, 3)
	assert.ErrorIs(t, err, models.ErrAttachmentNotFound)
	_, _, err = store.Achievements().AppendAttachments(ctx, "missing", models.Attachments{{FileName: "x.png"}}, 5)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAchievementUpdateKeepsAttachments(t *testing.T) {
	store := New()
	ctx := context.Background()
	m := seedMaster(t, store, "Siti Amalia", "20210001", 2023)
	record := models.AchievementRecord{MasterID: m.ID, Category: models.CategoryPortfolio, Detail: models.PortfolioDetail{ProjectName: "P", Course: "C"}}
	require.NoError(t, store.Achievements().Create(ctx, &record))
	_, _, err := store.Achievements().AppendAttachments(ctx, record.ID, models.Attachments{{FileName: "a.png"}}, 5)
	require.NoError(t, err)

	record.Featured = true
	require.NoError(t, store.Achievements().Update(ctx, &record))

	stored, err := store.Achievements().FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, stored.Featured)
	assert.Len(t, stored.Attachments, 1)
}

func TestMasterListPaginates(t *testing.T) {
	store := New()
	seedMaster(t, store, "Andi", "20210001", 2023)
	seedMaster(t, store, "Budi", "20210002", 2023)
	seedMaster(t, store, "Citra", "20210003", 2022)

	list, total, err := store.Masters().List(context.Background(), models.MasterFilter{Page: 2, PageSize: 2, SortBy: "full_name", SortOrder: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Citra", list[0].FullName)

	list, total, err = store.Masters().List(context.Background(), models.MasterFilter{GraduationYear: year(2023)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)
}

func TestEvaluationSummary(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Evaluations().Create(ctx, &models.EvaluationSubmission{Ratings: models.Ratings{TechnicalCompetence: 4, WorkEthic: 5, Communication: 3, Initiative: 4, Overall: 4}}))
	require.NoError(t, store.Evaluations().Create(ctx, &models.EvaluationSubmission{Ratings: models.Ratings{TechnicalCompetence: 2, WorkEthic: 5, Communication: 5, Initiative: 2, Overall: 3}}))

	summary, err := store.Evaluations().Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 3.0, summary.TechnicalCompetence, 0.001)
	assert.InDelta(t, 3.5, summary.Overall, 0.001)
}

func TestSessionStoreExpiry(t *testing.T) {
	sessions := NewSessionStore()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, models.AlumniSession{ID: "s1", MasterID: "m1", ExpiresAt: now.Add(time.Hour)}))
	got, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.MasterID)

	now = now.Add(2 * time.Hour)
	_, err = sessions.Get(ctx, "s1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSessionStoreSaveSweepsExpired(t *testing.T) {
	sessions := NewSessionStore()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, models.AlumniSession{ID: "old", MasterID: "m1", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, sessions.Save(ctx, models.AlumniSession{ID: "live", MasterID: "m2", ExpiresAt: now.Add(time.Hour)}))

	now = now.Add(10 * time.Minute)
	require.NoError(t, sessions.Save(ctx, models.AlumniSession{ID: "new", MasterID: "m3", ExpiresAt: now.Add(time.Hour)}))

	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	assert.Len(t, sessions.sessions, 2)
	assert.NotContains(t, sessions.sessions, "old")
}
