package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	config "github.com/NordCoder/SiteStatus/internal/config/sitestatus"
	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Store.Enabled = true
	cfg.Store.Backend = "sqlite"
	cfg.Store.Table = "site_status"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "status.db")
	cfg.Check.Concurrency = 2
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBuild_SQLiteEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t)
	a, err := Build(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Health(context.Background()))

	rep, err := a.Runner.Run(context.Background(), srv.URL+"/up", srv.URL+"/down")
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.OKCount)
	assert.Equal(t, 1, rep.Summary.IssueCount)
	assert.Equal(t, []string{srv.URL + "/down"}, rep.Summary.ProblemDomains)
	assert.Equal(t, status.ClassHTTPIssue, rep.Results[1].Classification)
	assert.False(t, rep.Notified)

	rows, err := a.Runner.Results(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 200, rows[0].Status)
	assert.Equal(t, 503, rows[1].Status)
}

func TestBuild_StoreDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Enabled = false

	a, err := Build(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Runner.Results(context.Background())
	assert.Error(t, err)
	assert.NoError(t, a.Health(context.Background()))
}
