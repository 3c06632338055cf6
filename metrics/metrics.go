// Package metrics exposes the Prometheus collectors of the job runtime and
// the automation session.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weibo_agent"

var (
	jobsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "submitted_total",
			Help:      "Jobs accepted by the queue, by kind",
		},
		[]string{"kind"},
	)
	jobsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Jobs that reached a terminal state, by kind and state",
		},
		[]string{"kind", "state"},
	)
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Wall time from job start to terminal state",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
		[]string{"kind"},
	)
	jobsRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "running",
			Help:      "Jobs currently executing, by lane",
		},
		[]string{"lane"},
	)
	automationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "automation",
			Name:      "attempts_total",
			Help:      "Delegated automation attempts including retries, by operation",
		},
		[]string{"operation"},
	)
	deletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "automation",
			Name:      "deletions_total",
			Help:      "Post deletion outcomes",
		},
		[]string{"outcome"},
	)
	postsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "automation",
			Name:      "analyzed_posts_total",
			Help:      "Scored posts, by risk band",
		},
		[]string{"risk"},
	)
)

var register sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	register.Do(func() {
		prometheus.MustRegister(jobsSubmitted, jobsFinished, jobDuration, jobsRunning, automationAttempts, deletions, postsAnalyzed)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

// JobSubmitted counts an accepted job.
func JobSubmitted(kind string) {
	jobsSubmitted.WithLabelValues(kind).Inc()
}

// JobStarted marks a job running on lane.
func JobStarted(lane string) {
	jobsRunning.WithLabelValues(lane).Inc()
}

// JobFinished records the terminal state and duration of a job.
func JobFinished(kind, lane, state string, elapsed time.Duration) {
	jobsRunning.WithLabelValues(lane).Dec()
	jobsFinished.WithLabelValues(kind, state).Inc()
	jobDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// AutomationAttempt counts one delegated call attempt.
func AutomationAttempt(operation string) {
	automationAttempts.WithLabelValues(operation).Inc()
}

// Deletion counts one deletion outcome.
func Deletion(success bool) {
	outcome := "failed"
	if success {
		outcome = "deleted"
	}
	deletions.WithLabelValues(outcome).Inc()
}

// PostsAnalyzed counts the posts of one report per risk band.
func PostsAnalyzed(high, medium, low int) {
	postsAnalyzed.WithLabelValues("high").Add(float64(high))
	postsAnalyzed.WithLabelValues("medium").Add(float64(medium))
	postsAnalyzed.WithLabelValues("low").Add(float64(low))
}
