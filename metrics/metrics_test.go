package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(jobsSubmitted.WithLabelValues("delete"))
	JobSubmitted("delete")
	assert.Equal(t, before+1, testutil.ToFloat64(jobsSubmitted.WithLabelValues("delete")))

	JobStarted("deletion")
	running := testutil.ToFloat64(jobsRunning.WithLabelValues("deletion"))
	JobFinished("delete", "deletion", "SUCCESS", 2*time.Second)
	assert.Equal(t, running-1, testutil.ToFloat64(jobsRunning.WithLabelValues("deletion")))

	deleted := testutil.ToFloat64(deletions.WithLabelValues("deleted"))
	Deletion(true)
	assert.Equal(t, deleted+1, testutil.ToFloat64(deletions.WithLabelValues("deleted")))

	attempts := testutil.ToFloat64(automationAttempts.WithLabelValues("delete_post"))
	AutomationAttempt("delete_post")
	assert.Equal(t, attempts+1, testutil.ToFloat64(automationAttempts.WithLabelValues("delete_post")))

	high := testutil.ToFloat64(postsAnalyzed.WithLabelValues("high"))
	PostsAnalyzed(2, 0, 1)
	assert.Equal(t, high+2, testutil.ToFloat64(postsAnalyzed.WithLabelValues("high")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Register()
	Register()
	JobSubmitted("login")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	res, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "weibo_agent_jobs_submitted_total"))
}
