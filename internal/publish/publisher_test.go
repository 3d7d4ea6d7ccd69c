package publish

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/aiactscan/pkg/models"
)

func sampleReport() *models.ComplianceReport {
	return &models.ComplianceReport{
		ScanID:          "scan-abc",
		RepositoryPath:  "/tmp/repo",
		ComplianceScore: 88.0,
		Compliant:       true,
		RiskLevel:       models.TierMinimal,
	}
}

func TestPublishUploads(t *testing.T) {
	var gotMethods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethods = append(gotMethods, r.Method)
		assert.Equal(t, "/api/reports/scan-abc", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodGet:
			http.NotFound(w, r)
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	p := NewPublisher(srv.URL, "tok")
	require.NoError(t, p.Publish(context.Background(), sampleReport()))
	assert.Equal(t, []string{http.MethodGet, http.MethodPut}, gotMethods)
}

func TestPublishSkipsExisting(t *testing.T) {
	var putCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			atomic.AddInt32(&putCount, 1)
		}
	}))
	defer srv.Close()

	p := NewPublisher(srv.URL, "tok")
	require.NoError(t, p.Publish(context.Background(), sampleReport()))
	assert.Zero(t, atomic.LoadInt32(&putCount))
}

func TestPublishRetriesServerErrors(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.NotFound(w, r)
			return
		}
		if atomic.AddInt32(&attempts, 1) < 3 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := NewPublisher(srv.URL, "tok")
	require.NoError(t, p.Publish(context.Background(), sampleReport()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestPublishDoesNotRetryClientErrors(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&attempts, 1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewPublisher(srv.URL, "tok")
	err := p.Publish(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestPublishConflictIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	p := NewPublisher(srv.URL, "tok")
	assert.NoError(t, p.Publish(context.Background(), sampleReport()))
}

func TestReportExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/reports/known" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := NewPublisher(srv.URL, "tok")

	exists, err := p.ReportExists(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = p.ReportExists(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, exists)
}
