package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sipal-api/internal/models"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/me/careers", http.StatusOK, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/me/careers", http.StatusOK, 5*time.Millisecond)
	m.RecordIdentitySearch(models.IdentityNotFound)
	m.RecordAttachments(2, 1)
	m.RecordExport(models.ExportFormatPDF, models.ExportStatusFinished)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, "/api/v1/me/careers", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.identitySearch.WithLabelValues("not_found")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.attachments.WithLabelValues("accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.attachments.WithLabelValues("rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.exports.WithLabelValues("pdf", "finished")))
}

func TestMetricsServiceHandlerExposesRegistry(t *testing.T) {
	m := NewMetricsService()
	m.RecordIdentitySearch(models.IdentitySingle)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sipal_identity_searches_total{outcome="single"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.RecordCascade(models.CascadeResult{Careers: 1})
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
