package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/repository/memstore"
	"github.com/noah-isme/sipal-api/internal/service"
	"github.com/noah-isme/sipal-api/pkg/config"
	"github.com/noah-isme/sipal-api/pkg/storage"
)

const (
	testSessionHeader = "X-Alumni-Session"
	workingDetail     = `{"companyName":"PT Maju","jobTitle":"Backend Engineer","companyLocation":"Jakarta","industry":"Teknologi","startYear":2023,"currentlyEmployed":true}`
	competitionDetail = `{"name":"Gemastik","organizer":"Puspresnas","level":"national","rank":"Juara 2","year":2022}`
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *envelopeError         `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type envelopeError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	metrics := service.NewMetricsService()
	cache := service.NewCacheService(nil, metrics, time.Minute, nil)
	validate := service.NewValidator()

	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := service.NewAdminAccount(config.AdminConfig{Email: "admin@sipal.local", PasswordHash: string(hash), Name: "Admin"})
	auth := service.NewAuthService([]models.AdminAccount{admin}, validate, nil, service.AuthConfig{AccessTokenSecret: "test"})

	identity := service.NewIdentityService(store.Masters(), memstore.NewSessionStore(), time.Hour, metrics, validate, nil)
	masters := service.NewMasterService(store.Masters(), cache, metrics, validate, nil)
	careers := service.NewCareerService(store.Careers(), store.Masters(), cache, validate, nil)
	wizard := service.NewWizardService(careers, store.Masters(), nil)
	achievements := service.NewAchievementService(store.Achievements(), store.Masters(), cache, validate, nil)
	attachments := service.NewAttachmentService(achievements, config.AttachmentConfig{
		MaxCount:     2,
		MaxSizeBytes: 1024,
		AllowedMIMEs: []string{"application/pdf", "image/png"},
	}, metrics, nil)
	dashboard := service.NewDashboardService(service.DashboardServiceParams{
		Masters: store.Masters(), Careers: store.Careers(), Achievements: store.Achievements(), Cache: cache,
	})
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(service.ExportServiceParams{
		Masters:   store.Masters(),
		Careers:   store.Careers(),
		Jobs:      memstore.NewExportJobStore(),
		Storage:   files,
		Signer:    storage.NewSignedURLSigner("test-secret", time.Hour),
		Metrics:   metrics,
		Validator: validate,
		Logger:    zap.NewNop(),
		Config:    service.ExportConfig{APIPrefix: "/api/v1"},
	})
	evaluations := service.NewEvaluationService(store.Evaluations(), store.Masters(), validate, nil)

	router := gin.New()
	RegisterRoutes(router, Routes{
		APIPrefix:     "/api/v1",
		SessionHeader: testSessionHeader,
		Tokens:        auth,
		Selections:    identity,
		Auth:          NewAuthHandler(auth),
		Identity:      NewIdentityHandler(identity, testSessionHeader),
		Dashboard:     NewDashboardHandler(dashboard),
		Careers:       NewCareerHandler(careers, wizard),
		Achievements:  NewAchievementHandler(achievements, attachments),
		Masters:       NewMasterHandler(masters),
		Exports:       NewExportHandler(exports),
		Evaluations:   NewEvaluationHandler(evaluations),
		Metrics: NewMetricsHandler(metrics, map[string]Pinger{
			"store": func(context.Context) error { return nil },
		}),
	})

	srv := &testServer{router: router, store: store}
	login := srv.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"admin@sipal.local","password":"rahasia123"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	decodeData(t, login, &body)
	srv.token = body.AccessToken
	return srv
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) admin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.token}
}

func (s *testServer) seedAlumnus(t *testing.T, name, nim string, grad int) models.MasterRecord {
	t.Helper()
	year := grad
	record := &models.MasterRecord{
		FullName: name, NIM: nim, Department: "Teknik", Program: "Informatika",
		EntryYear: grad - 4, GraduationYear: &year, Status: models.MasterStatusAlumni,
	}
	require.NoError(t, s.store.Masters().Create(context.Background(), record))
	return *record
}

// selectAs walks the /validasi flow and returns the session header set.
func (s *testServer) selectAs(t *testing.T, master models.MasterRecord) map[string]string {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"masterId": master.ID, "fullName": master.FullName, "graduationYear": *master.GraduationYear,
	})
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/api/v1/validasi/select", string(payload), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sessionID := rec.Header().Get(testSessionHeader)
	require.NotEmpty(t, sessionID)
	return map[string]string{testSessionHeader: sessionID}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestIdentityFlow(t *testing.T) {
	srv := newTestServer(t)
	siti := srv.seedAlumnus(t, "Siti Amalia", "20190001", 2023)

	rec := srv.do(t, http.MethodPost, "/api/v1/validasi/search", `{"fullName":"Budi","graduationYear":2023}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var search struct {
		Outcome  string `json:"outcome"`
		Fallback string `json:"fallback"`
	}
	decodeData(t, rec, &search)
	assert.Equal(t, "not_found", search.Outcome)
	assert.Equal(t, service.NotFoundFallback, search.Fallback)

	rec = srv.do(t, http.MethodGet, "/api/v1/me/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SELECTION_REQUIRED", env.Error.Code)
	assert.Equal(t, "/validasi", env.Error.Details["redirect"])

	session := srv.selectAs(t, siti)
	rec = srv.do(t, http.MethodGet, "/api/v1/me/dashboard", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	var dashboard struct {
		Master models.MasterRecord `json:"master"`
	}
	decodeData(t, rec, &dashboard)
	assert.Equal(t, siti.ID, dashboard.Master.ID)

	rec = srv.do(t, http.MethodDelete, "/api/v1/session", "", session)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/v1/session", "", session)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCareerRoutes(t *testing.T) {
	srv := newTestServer(t)
	session := srv.selectAs(t, srv.seedAlumnus(t, "Siti Amalia", "20190001", 2023))

	rec := srv.do(t, http.MethodPost, "/api/v1/me/careers",
		`{"status":"working","recordYear":2023,"isCurrent":true,"detail":`+workingDetail+`}`, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.CareerRecord
	decodeData(t, rec, &created)

	rec = srv.do(t, http.MethodPost, "/api/v1/me/careers",
		`{"status":"working","recordYear":2021,"detail":{"companyName":"PT Lama","jobTitle":"QA","companyLocation":"Bandung","industry":"Teknologi","startYear":2020,"currentlyEmployed":false}}`, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Fields, "endYear")

	rec = srv.do(t, http.MethodPut, "/api/v1/me/careers/"+created.ID, `{"recordYear":2024}`, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/api/v1/me/careers", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.CareerRecord
	decodeData(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 2024, list[0].RecordYear)

	rec = srv.do(t, http.MethodDelete, "/api/v1/me/careers/"+created.ID, "", session)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/v1/me/careers/"+created.ID, "", session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWizardRoutes(t *testing.T) {
	srv := newTestServer(t)
	session := srv.selectAs(t, srv.seedAlumnus(t, "Siti Amalia", "20190001", 2023))

	rec := srv.do(t, http.MethodPost, "/api/v1/me/careers/wizard", `{"step":"status","draft":{}}`, session)
	require.Equal(t, http.StatusOK, rec.Code)
	var stuck struct {
		CurrentStep string            `json:"currentStep"`
		Errors      map[string]string `json:"errors"`
	}
	decodeData(t, rec, &stuck)
	assert.Equal(t, "status", stuck.CurrentStep)
	assert.Contains(t, stuck.Errors, "status")

	draft := `{"status":"working","recordYear":2023,"isCurrent":true,"detail":` + workingDetail + `,"email":"siti@example.com","phone":"081234567890"}`
	rec = srv.do(t, http.MethodPost, "/api/v1/me/careers/wizard", `{"step":"status","draft":`+draft+`}`, session)
	require.Equal(t, http.StatusOK, rec.Code)
	var moved struct {
		CurrentStep string `json:"currentStep"`
	}
	decodeData(t, rec, &moved)
	assert.Equal(t, "details", moved.CurrentStep)

	rec = srv.do(t, http.MethodPost, "/api/v1/me/careers/wizard/submit", `{"step":"contact","draft":`+draft+`}`, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/me/careers/wizard/submit", `{"step":"confirm","draft":`+draft+`}`, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var submitted struct {
		Master models.MasterRecord `json:"master"`
	}
	decodeData(t, rec, &submitted)
	assert.Equal(t, "siti@example.com", submitted.Master.Email)
}

func TestAchievementAndAttachmentRoutes(t *testing.T) {
	srv := newTestServer(t)
	session := srv.selectAs(t, srv.seedAlumnus(t, "Siti Amalia", "20190001", 2023))

	rec := srv.do(t, http.MethodPost, "/api/v1/me/achievements", `{"category":"competition","featured":true,"detail":`+competitionDetail+`}`, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.AchievementRecord
	decodeData(t, rec, &created)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", "bukti.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"))
	part, err = writer.CreateFormFile("files", "catatan.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hanya teks biasa"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/me/achievements/"+created.ID+"/attachments", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(testSessionHeader, session[testSessionHeader])
	upload := httptest.NewRecorder()
	srv.router.ServeHTTP(upload, req)
	require.Equal(t, http.StatusOK, upload.Code, upload.Body.String())
	var result struct {
		Accepted []models.Attachment          `json:"accepted"`
		Rejected []models.AttachmentRejection `json:"rejected"`
	}
	decodeData(t, upload, &result)
	require.Len(t, result.Accepted, 1)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "catatan.txt", result.Rejected[0].FileName)

	rec = srv.do(t, http.MethodGet, "/api/v1/me/achievements/stats", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.AchievementStats
	decodeData(t, rec, &stats)
	assert.Equal(t, 1, stats[models.CategoryCompetition])

	rec = srv.do(t, http.MethodDelete, "/api/v1/me/achievements/"+created.ID+"/attachments/5", "", session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/v1/me/achievements/"+created.ID+"/attachments/x", "", session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/v1/me/achievements/"+created.ID+"/attachments/0", "", session)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/admin/masters", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"admin@sipal.local","password":"salah"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, rec).Error.Code)
}

func TestAdminMasterCRUD(t *testing.T) {
	srv := newTestServer(t)
	payload := `{"fullName":"Siti Amalia","nim":"20190001","department":"Teknik","program":"Informatika","entryYear":2019,"graduationYear":2023,"status":"alumni"}`

	rec := srv.do(t, http.MethodPost, "/api/v1/admin/masters", payload, srv.admin())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.MasterRecord
	decodeData(t, rec, &created)

	rec = srv.do(t, http.MethodPost, "/api/v1/admin/masters", payload, srv.admin())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/admin/masters", strings.Replace(payload, "20190001", "123", 1), srv.admin())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Fields, "nim")

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/masters?page=1&pageSize=10", "", srv.admin())
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.EqualValues(t, 1, env.Pagination["totalCount"])

	rec = srv.do(t, http.MethodDelete, "/api/v1/admin/masters/"+created.ID, "", srv.admin())
	require.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/v1/admin/masters/"+created.ID, "", srv.admin())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDashboardAndExport(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAlumnus(t, "Budi, SE", "20190002", 2022)

	rec := srv.do(t, http.MethodGet, "/api/v1/admin/dashboard?graduationYear=2022", "", srv.admin())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.Equal(t, false, env.Meta["cache_hit"])
	var summary struct {
		TotalAlumni int `json:"totalAlumni"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.TotalAlumni)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/alumni/export", "", srv.admin())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Nama,NIM,Jurusan,Prodi,Tahun Lulus,Status,Email,No HP\n"))
	assert.Contains(t, rec.Body.String(), `"Budi, SE"`)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/alumni/export?format=xlsx", "", srv.admin())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/admin/exports", `{"format":"docx"}`, srv.admin())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/exports/not-a-token", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEvaluationRoutes(t *testing.T) {
	srv := newTestServer(t)
	siti := srv.seedAlumnus(t, "Siti Amalia", "20190001", 2023)

	payload := `{"studentId":"` + siti.ID + `","evaluatorName":"Andi","evaluatorPosition":"HR","evaluatorEmail":"andi@maju.co.id","companyName":"PT Maju",` +
		`"ratings":{"technicalCompetence":4,"workEthic":5,"communication":4,"initiative":4,"overall":5}}`
	rec := srv.do(t, http.MethodPost, "/api/v1/evaluations", payload, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/v1/evaluations", strings.Replace(payload, `"overall":5`, `"overall":0`, 1), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/evaluations/summary", "", srv.admin())
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.EvaluationSummary
	decodeData(t, rec, &summary)
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 5.0, summary.Overall, 0.001)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/evaluations?studentId="+siti.ID, "", srv.admin())
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndNoRoute(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/metrics", "", nil).Code)

	rec := srv.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error.Code)
}

func TestReadyReportsFailingCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(nil, map[string]Pinger{
		"redis": func(context.Context) error { return assert.AnError },
	})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	h.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}
