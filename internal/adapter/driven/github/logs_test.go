package github_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/prtools/prdigest/internal/adapter/driven/github"
	"github.com/prtools/prdigest/internal/domain/model"
)

func TestFetchRunFailedLog_DownloadsFailedJobLogs(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/octocat/hello-world/actions/runs/99/jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "latest", r.URL.Query().Get("filter"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_count": 2,
			"jobs": [
				{"id": 11, "name": "build", "conclusion": "success"},
				{"id": 12, "name": "test", "conclusion": "failure"}
			]
		}`))
	})
	mux.HandleFunc("/repos/octocat/hello-world/actions/jobs/12/logs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/logtext", http.StatusFound)
	})
	mux.HandleFunc("/logtext", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("collecting tests\nFAILED tests/test_app.py::test_main\n"))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", "test-token")
	require.NoError(t, err)

	logText, err := client.FetchRunFailedLog(context.Background(), testRef, 99)
	require.NoError(t, err)

	assert.Contains(t, logText, "==> Job: test")
	assert.Contains(t, logText, "FAILED tests/test_app.py::test_main")
	assert.NotContains(t, logText, "build", "successful jobs must not contribute logs")
}

func TestFetchRunFailedLog_NoFailedJobs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count": 1, "jobs": [{"id": 11, "name": "build", "conclusion": "success"}]}`))
	}))

	logText, err := client.FetchRunFailedLog(context.Background(), testRef, 99)
	require.NoError(t, err)
	assert.Empty(t, logText)
}

func TestFetchRunFailedLog_ListJobsFails(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "Server Error"}`, http.StatusInternalServerError)
	}))

	_, err := client.FetchRunFailedLog(context.Background(), testRef, 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCallFailed)
	assert.Contains(t, err.Error(), "listing jobs for run 99")
}
