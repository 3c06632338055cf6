package structs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateTerminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateProgress.Terminal())
	assert.True(t, StateSuccess.Terminal())
	assert.True(t, StateFailure.Terminal())
	assert.True(t, StateRevoked.Terminal())
}

func TestLaneOf(t *testing.T) {
	assert.Equal(t, LaneAnalysis, LaneOf(KindLogin))
	assert.Equal(t, LaneAnalysis, LaneOf(KindAnalyze))
	assert.Equal(t, LaneDeletion, LaneOf(KindDelete))
}

func TestCloneIsDeep(t *testing.T) {
	pct := 40
	now := time.Now()
	j := &Job{
		ID:        "a",
		Progress:  Progress{Message: "m", Percent: &pct, Meta: map[string]any{"k": 1}},
		Payload:   json.RawMessage(`{"x":1}`),
		StartedAt: &now,
	}

	c := j.Clone()
	c.Progress.Meta["k"] = 2
	*c.Progress.Percent = 90
	c.Payload[2] = 'y'
	*c.StartedAt = now.Add(time.Hour)

	assert.Equal(t, 1, j.Progress.Meta["k"])
	assert.Equal(t, 40, *j.Progress.Percent)
	assert.Equal(t, `{"x":1}`, string(j.Payload))
	assert.Equal(t, now, *j.StartedAt)
}

func TestLoginPayloadRedacted(t *testing.T) {
	p := LoginPayload{Username: "u", Password: "secret", UsePassword: true}
	r := p.Redacted()
	assert.Equal(t, "******", r.Password)
	assert.Equal(t, "secret", p.Password)
	assert.Empty(t, LoginPayload{}.Redacted().Password)
}
