package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sipal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var masterRowColumns = []string{"id", "full_name", "nim", "department", "program", "entry_year", "graduation_year", "status", "email", "phone", "created_at", "updated_at"}

func TestMasterRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	rows := sqlmock.NewRows(masterRowColumns).
		AddRow("m1", "Siti Amalia", "20210001", "Teknik", "Informatika", 2019, 2023, "alumni", "siti@example.com", "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + masterColumns + " FROM master_records WHERE 1=1 AND graduation_year = $1 ORDER BY full_name ASC, id LIMIT 20 OFFSET 0")).
		WithArgs(2023).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM master_records WHERE 1=1 AND graduation_year = $1")).
		WithArgs(2023).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	grad := 2023
	records, total, err := repo.List(context.Background(), models.MasterFilter{GraduationYear: &grad, SortBy: "full_name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 2023, *records[0].GraduationYear)
	assert.Equal(t, models.MasterStatusAlumni, records[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryFindByNameAndYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectQuery("LOWER\\(full_name\\) LIKE \\$1 AND graduation_year = \\$2").
		WithArgs("%siti%", 2023).
		WillReturnRows(sqlmock.NewRows(masterRowColumns).
			AddRow("m1", "Siti Amalia", "20210001", "Teknik", "Informatika", 2019, 2023, "alumni", "", "", time.Now(), time.Now()))

	records, err := repo.FindByNameAndYear(context.Background(), "  Siti ", 2023)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryFindByNameAndYearEscapesWildcards(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectQuery("FROM master_records WHERE LOWER").
		WithArgs(`%100\%%`, 2023).
		WillReturnRows(sqlmock.NewRows(masterRowColumns))

	records, err := repo.FindByNameAndYear(context.Background(), "100%", 2023)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryExistsByNIM(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM master_records WHERE nim = $1 AND id <> $2 LIMIT 1")).
		WithArgs("20210001", "m1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByNIM(context.Background(), "20210001", "m1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectExec("INSERT INTO master_records").
		WithArgs(sqlmock.AnyArg(), "Siti Amalia", "20210001", "Teknik", "Informatika", 2019, sqlmock.AnyArg(), "alumni", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	grad := 2023
	record := &models.MasterRecord{FullName: "Siti Amalia", NIM: "20210001", Department: "Teknik", Program: "Informatika", EntryYear: 2019, GraduationYear: &grad, Status: models.MasterStatusAlumni}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryListEscapesSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectQuery("SELECT .+ FROM master_records WHERE 1=1 AND \\(LOWER\\(full_name\\) LIKE \\$1 OR nim LIKE \\$1\\)").
		WithArgs(`%50\%\_x%`).
		WillReturnRows(sqlmock.NewRows(masterRowColumns))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM master_records").
		WithArgs(`%50\%\_x%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	records, total, err := repo.List(context.Background(), models.MasterFilter{Search: " 50%_X "})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryCreateDuplicateNIM(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectExec("INSERT INTO master_records").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "master_records_nim_key"})

	record := &models.MasterRecord{FullName: "Siti Amalia", NIM: "20210001", Department: "Teknik", Program: "Informatika", EntryYear: 2019, Status: models.MasterStatusAlumni}
	assert.ErrorIs(t, repo.Create(context.Background(), record), models.ErrDuplicateNIM)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryUpdateDuplicateNIM(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectExec("UPDATE master_records SET").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "master_records_nim_key"})
	mock.ExpectExec("UPDATE master_records SET").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "master_records_pkey"})

	record := &models.MasterRecord{ID: "m1", FullName: "Siti Amalia", NIM: "20210001", Department: "Teknik", Program: "Informatika", EntryYear: 2019, Status: models.MasterStatusAlumni}
	assert.ErrorIs(t, repo.Update(context.Background(), record), models.ErrDuplicateNIM)

	err := repo.Update(context.Background(), record)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrDuplicateNIM)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM achievement_records WHERE master_id = \\$1").WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM career_records WHERE master_id = \\$1").WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM master_records WHERE id = \\$1").WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Delete(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.CascadeResult{Careers: 2, Achievements: 3}, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMasterRepositoryDeleteUnknownRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMasterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM achievement_records").WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM career_records").WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM master_records").WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
