package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lms-ally/syncer/src/utils/config"

	"github.com/stretchr/testify/require"
)

func TestServerRoutes(t *testing.T) {
	monitor := NewMonitor()
	monitor.Report.Ally.State.BatchesSent.Add(3)
	monitor.Report.Ally.State.CliOnly.Store(true)

	server := NewServer(config.Default()).WithMonitor(monitor)

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/state", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var state map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.Contains(t, state, "ally")

	w = httptest.NewRecorder()
	server.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "ally_batches_sent 3"))
	require.True(t, strings.Contains(w.Body.String(), "ally_cli_only 1"))

	w = httptest.NewRecorder()
	server.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHealthDependsOnRuns(t *testing.T) {
	monitor := NewMonitor().WithMaxRunDelay(time.Minute)
	require.True(t, monitor.IsOK())

	// Pretend the process has been running for a while
	monitor.Report.Run.State.StartTimestamp.Store(time.Now().Add(-time.Hour).Unix())
	require.False(t, monitor.IsOK())

	now := time.Now().Unix()
	monitor.Report.Ally.State.LastFileRunTimestamp.Store(now)
	monitor.Report.Ally.State.LastContentRunTimestamp.Store(now)
	require.True(t, monitor.IsOK())
}
