// Package structs defines the job records kept by the queue runtime.
package structs

import (
	"encoding/json"
	"maps"
	"time"
)

// State is the lifecycle state of a job.
type State string

const (
	StatePending  State = "PENDING"
	StateProgress State = "PROGRESS"
	StateSuccess  State = "SUCCESS"
	StateFailure  State = "FAILURE"
	StateRevoked  State = "REVOKED"
)

// Terminal reports whether s is absorbing.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure || s == StateRevoked
}

// Kind names the work a job performs.
type Kind string

const (
	KindLogin   Kind = "login"
	KindAnalyze Kind = "analyze"
	KindDelete  Kind = "delete"
)

// Lane is a sub-queue with its own workers.
type Lane string

const (
	LaneAnalysis Lane = "analysis"
	LaneDeletion Lane = "deletion"
)

// Lanes lists every lane.
var Lanes = []Lane{LaneAnalysis, LaneDeletion}

// LaneOf routes a kind to its lane. Deletions get their own lane so a long
// batch never starves logins and analyses.
func LaneOf(k Kind) Lane {
	if k == KindDelete {
		return LaneDeletion
	}
	return LaneAnalysis
}

// Progress is the latest progress report of a running job.
type Progress struct {
	Message string         `json:"message,omitempty"`
	Percent *int           `json:"percent,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Job is the canonical record of one submitted job.
type Job struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Lane      Lane            `json:"lane"`
	State     State           `json:"state"`
	Progress  Progress        `json:"progress"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	TraceID   string          `json:"trace_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
}

// Clone returns a copy sharing no mutable state with j.
func (j *Job) Clone() *Job {
	c := *j
	c.Progress.Meta = maps.Clone(j.Progress.Meta)
	if j.Progress.Percent != nil {
		p := *j.Progress.Percent
		c.Progress.Percent = &p
	}
	if j.Payload != nil {
		c.Payload = append(json.RawMessage(nil), j.Payload...)
	}
	if j.Result != nil {
		c.Result = append(json.RawMessage(nil), j.Result...)
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.EndedAt != nil {
		t := *j.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// StatusView is the client facing state of a job.
type StatusView struct {
	TaskID   string          `json:"task_id"`
	Status   State           `json:"status"`
	Progress *int            `json:"progress,omitempty"`
	Message  string          `json:"message"`
	Meta     map[string]any  `json:"meta,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// QRStatusView is the login specific view of a job.
type QRStatusView struct {
	TaskID   string            `json:"task_id"`
	Status   State             `json:"status"`
	QRStatus string            `json:"qr_status"`
	Message  string            `json:"message"`
	QRCode   string            `json:"qr_code,omitempty"`
	UserInfo map[string]string `json:"user_info,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Stats summarizes the queue for the stats endpoint.
type Stats struct {
	ActiveTasks         int64  `json:"active_tasks"`
	ReservedTasks       int64  `json:"reserved_tasks"`
	TotalPending        int64  `json:"total_pending"`
	MaxDeletePerHour    int    `json:"max_delete_per_hour"`
	OperationDelayRange string `json:"operation_delay_range"`

	// Lanes is only filled by a process running workers.
	Lanes map[Lane]LaneStats `json:"lanes,omitempty"`
}

// LaneStats reports the worker pool of one lane in this process.
type LaneStats struct {
	Workers     int     `json:"workers"`
	Active      int64   `json:"active"`
	Prefetched  int32   `json:"prefetched"`
	Completed   int64   `json:"completed"`
	Failed      int64   `json:"failed"`
	TimedOut    int64   `json:"timed_out"`
	BusySeconds float64 `json:"busy_seconds"`
}
