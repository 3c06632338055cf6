package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "weibo-agent", cfg.AppName)
	assert.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	assert.Equal(t, 100, cfg.Weibo.MaxDeletePerHour)
	assert.Equal(t, 2*time.Second, cfg.Weibo.OperationDelayMin)
	assert.Equal(t, 10*time.Second, cfg.Weibo.OperationDelayMax)
	assert.Equal(t, 5*time.Second, cfg.Weibo.QRPollInterval)
	assert.Equal(t, 60, cfg.Weibo.QRMaxPolls)
	assert.Equal(t, 3, cfg.Weibo.MaxRetries)
	assert.Equal(t, 25*time.Minute, cfg.Queue.SoftTimeLimit)
	assert.Equal(t, 30*time.Minute, cfg.Queue.HardTimeLimit)
	assert.Equal(t, time.Hour, cfg.Queue.ResultExpires)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Frontend.AllowedOrigins())
	assert.False(t, cfg.Queue.Distributed())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MAX_DELETE_PER_HOUR", "5")
	t.Setenv("OPERATION_DELAY_MIN", "0")
	t.Setenv("OPERATION_DELAY_MAX", "1")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Weibo.MaxDeletePerHour)
	assert.Equal(t, time.Duration(0), cfg.Weibo.OperationDelayMin)
	assert.Equal(t, time.Second, cfg.Weibo.OperationDelayMax)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.Frontend.AllowedOrigins())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app_name: agent-test
queue:
  broker: redis
  store: redis
  deletion_workers: 3
weibo:
  qr_max_polls: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "agent-test", cfg.AppName)
	assert.Equal(t, BrokerRedis, cfg.Queue.Broker)
	assert.Equal(t, 3, cfg.Queue.DeletionWorkers)
	assert.Equal(t, 2, cfg.Weibo.QRMaxPolls)
	assert.True(t, cfg.Queue.Distributed())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsInvertedDelays(t *testing.T) {
	t.Setenv("OPERATION_DELAY_MIN", "10")
	t.Setenv("OPERATION_DELAY_MAX", "2")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation_delay_max")
}

func TestValidateRejectsUnknownBroker(t *testing.T) {
	t.Setenv("QUEUE_BROKER", "kafka")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestRabbitMQRequiresURL(t *testing.T) {
	t.Setenv("QUEUE_BROKER", "rabbitmq")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amqp_url")
}

func TestInitAndGetConfig(t *testing.T) {
	cfg, err := Init("")
	require.NoError(t, err)

	got, err := GetConfig()
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
