package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sipal-api/internal/dto"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/repository/memstore"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

func evaluationRequest(studentID string, overall int) dto.EvaluationRequest {
	return dto.EvaluationRequest{
		StudentID:         studentID,
		EvaluatorName:     "Andi Wijaya",
		EvaluatorPosition: "HR Manager",
		EvaluatorEmail:    "Andi@PTMaju.co.id",
		CompanyName:       "PT Maju",
		Ratings: models.Ratings{
			TechnicalCompetence: 4, WorkEthic: 5, Communication: 4, Initiative: 3, Overall: overall,
		},
		Feedback: "Sangat membantu tim.",
	}
}

func TestEvaluationSubmitSnapshotsStudent(t *testing.T) {
	store := memstore.New()
	siti := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	svc := NewEvaluationService(store.Evaluations(), store.Masters(), nil, nil)
	ctx := context.Background()

	submission, err := svc.Submit(ctx, evaluationRequest(siti.ID, 5))
	require.NoError(t, err)
	assert.Equal(t, "andi@ptmaju.co.id", submission.EvaluatorEmail)
	assert.Equal(t, "Siti Amalia", submission.Student.FullName)

	renamed := siti
	renamed.FullName = "Siti Amalia Putri"
	require.NoError(t, store.Masters().Update(ctx, &renamed))

	items, pagination, err := svc.List(ctx, dto.EvaluationListQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Siti Amalia", items[0].Student.FullName)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestEvaluationSubmitValidatesRatings(t *testing.T) {
	store := memstore.New()
	siti := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	svc := NewEvaluationService(store.Evaluations(), store.Masters(), nil, nil)

	_, err := svc.Submit(context.Background(), evaluationRequest(siti.ID, 6))
	require.Error(t, err)
	assert.Equal(t, "ratings.overall must be at most 5", appErrors.FromError(err).Fields["ratings.overall"])

	_, err = svc.Submit(context.Background(), evaluationRequest("missing", 5))
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "studentId")
}

func TestEvaluationSummary(t *testing.T) {
	store := memstore.New()
	siti := seedAlumnus(t, store, "Siti Amalia", "20190001", 2023)
	svc := NewEvaluationService(store.Evaluations(), store.Masters(), nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, evaluationRequest(siti.ID, 5))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, evaluationRequest(siti.ID, 3))
	require.NoError(t, err)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 4.0, summary.Overall, 0.001)
	assert.InDelta(t, 5.0, summary.WorkEthic, 0.001)
}
