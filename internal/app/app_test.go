package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplicationWiresRoutes(t *testing.T) {
	t.Setenv("QTX_STORE_DRIVER", "memory")
	t.Setenv("QTX_LOGGING_OUTPUT", "stdout")

	application, err := NewApplication(context.Background())
	require.NoError(t, err)
	defer application.Store.Close()

	paths := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/health/live", http.StatusOK},
		{http.MethodGet, "/api/health/ready", http.StatusOK},
		{http.MethodGet, "/api/version", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
	}

	for _, tt := range paths {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		application.Router.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}

	// An unknown license key is a 403 denial end to end.
	req := httptest.NewRequest(http.MethodPost, "/api/license/verify",
		strings.NewReader(`{"license_key":"QTX-NOPE","device_id":"dev-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
