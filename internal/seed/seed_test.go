package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/repository/memstore"
)

func storesFor(store *memstore.Store) Stores {
	return Stores{
		Masters:      store.Masters(),
		Careers:      store.Careers(),
		Achievements: store.Achievements(),
		Evaluations:  store.Evaluations(),
	}
}

func TestLoadDemoSeedAndApply(t *testing.T) {
	ds, err := Load("../../seeds/demo.yaml")
	require.NoError(t, err)
	require.Len(t, ds.Entries, 3)

	store := memstore.New()
	ctx := context.Background()
	sum, err := Apply(ctx, ds, storesFor(store), nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Masters: 3, Careers: 2, Achievements: 1, Evaluations: 1}, sum)

	matches, err := store.Masters().FindByNameAndYear(ctx, "siti", 2023)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	careers, err := store.Careers().ListByMasterID(ctx, matches[0].ID)
	require.NoError(t, err)
	require.Len(t, careers, 1)
	assert.Equal(t, models.CareerWorking, careers[0].Status)

	evaluations, _, err := store.Evaluations().List(ctx, models.EvaluationFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, evaluations, 1)
	assert.Equal(t, matches[0].ID, evaluations[0].Student.ID)

	again, err := Apply(ctx, ds, storesFor(store), nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 3}, again)
}

func TestParseReportsEveryProblem(t *testing.T) {
	doc := `
masters:
  - fullName: Siti
    nim: "20190001"
    department: Teknik
    program: Informatika
    entryYear: 2019
    graduationYear: 2018
    status: alumni
    careers:
      - status: working
        recordYear: 2023
        detail:
          companyName: PT Maju
          jobTitle: Engineer
          companyLocation: Jakarta
          industry: Teknologi
          startYear: 2020
          currentlyEmployed: false
      - status: freelancing
        recordYear: 2023
  - fullName: Budi
    nim: "20190001"
    department: Teknik
    program: Informatika
    entryYear: 2019
    graduationYear: 2023
    status: alumni
evaluations:
  - studentNim: "99999999"
    evaluatorName: Andi
    evaluatorPosition: HR
    evaluatorEmail: andi@maju.co.id
    companyName: PT Maju
    ratings: {technicalCompetence: 4, workEthic: 4, communication: 4, initiative: 4, overall: 9}
`
	_, err := Parse(strings.NewReader(doc))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)

	paths := make([]string, len(verr.Problems))
	for i, p := range verr.Problems {
		paths[i] = p.Path
	}
	assert.Contains(t, paths, "masters[0].graduationYear")
	assert.Contains(t, paths, "masters[0].careers[0].endYear")
	assert.Contains(t, paths, "masters[0].careers[1].status")
	assert.Contains(t, paths, "masters[1].nim")
	assert.Contains(t, paths, "evaluations[0].studentNim")
	assert.Contains(t, paths, "evaluations[0].ratings.overall")
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("masters:\n  - fullName: Siti\n    angkatan: 2019\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode seed")
}
