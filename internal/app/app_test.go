package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darahcli/internal/config"
	customMiddleware "darahcli/internal/middleware"
	"darahcli/internal/services"
	handlers "darahcli/internal/transport/http"
	"darahcli/internal/shared/testutil"
)

// newTestApplication builds an Application with the router wired but no
// listening server, OTel exporters or real datasets.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base

	paths := &config.Paths{
		ExecutableDir: base,
		DataDir:       base,
		DatasetsDir:   base,
		ReportsDir:    base,
	}

	logger, _ := testutil.NewTestLogger(t)

	a := &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
	}
	a.AnalysisService = services.NewAnalysisService(cfg, paths, nil, nil, logger)
	a.HealthService = services.NewHealthService("test", RepoURL, paths, a.AnalysisService, nil, logger)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Route("/api", func(r chi.Router) {
		handlers.NewHealthHandler(a.HealthService, logger).RegisterRoutes(r)
		handlers.NewAnalysisHandler(a.AnalysisService, logger).RegisterRoutes(r)
	})
	a.Router = r
	a.createServer()

	return a
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApplication(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "liveness", method: http.MethodGet, path: "/api/health/live", wantStatus: http.StatusOK},
		{name: "version", method: http.MethodGet, path: "/api/version", wantStatus: http.StatusOK},
		{name: "summary before run", method: http.MethodGet, path: "/api/summary", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/api/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			a.Router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestApplication_RequestIDHeader(t *testing.T) {
	a := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestApplication_CreateServer(t *testing.T) {
	a := newTestApplication(t)

	require.NotNil(t, a.Server)
	assert.Equal(t, a.Config.Server.ReadTimeout, a.Server.ReadTimeout)
	assert.Equal(t, a.Config.Server.WriteTimeout, a.Server.WriteTimeout)
	assert.NotEmpty(t, a.Server.Addr)
}

func TestApplication_CORSConfig(t *testing.T) {
	a := newTestApplication(t)
	a.Config.Security.EnableCORS = true
	a.Config.Security.AllowedOrigins = []string{"https://darah.example.com"}

	cfg := a.getCORSConfig()

	assert.Contains(t, cfg.AllowedOrigins, "https://darah.example.com")
	assert.Contains(t, cfg.AllowedMethods, http.MethodPost)
}
