package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	lc "github.com/ncobase/weibo-agent/logging/logger/config"
	"github.com/spf13/viper"
)

var (
	config *Config
	mu     sync.RWMutex
)

// Config represents the configuration implementation.
type Config struct {
	AppName     string       `validate:"required"`
	RunMode     string       `validate:"oneof=debug release test"`
	Environment string       `validate:"required"`
	Server      *Server      `validate:"required"`
	Logger      *lc.Config   `validate:"required"`
	Data        *Data        `validate:"required"`
	Queue       *Queue       `validate:"required"`
	Weibo       *Weibo       `validate:"required"`
	LLM         *LLM         `validate:"required"`
	Automation  *Automation  `validate:"required"`
	Frontend    *Frontend    `validate:"required"`
	Observes    *Observes    `validate:"required"`
	Viper       *viper.Viper `validate:"-"`
}

// legacyEnv maps keys to environment variable names that predate the
// SECTION_KEY naming scheme.
var legacyEnv = map[string]string{
	"llm.api_key":               "DEEPSEEK_API_KEY",
	"llm.base_url":              "DEEPSEEK_BASE_URL",
	"llm.model":                 "LLM_MODEL",
	"data.redis.url":            "REDIS_URL",
	"queue.broker":              "QUEUE_BROKER",
	"weibo.max_delete_per_hour": "MAX_DELETE_PER_HOUR",
	"weibo.operation_delay_min": "OPERATION_DELAY_MIN",
	"weibo.operation_delay_max": "OPERATION_DELAY_MAX",
	"frontend.url":              "FRONTEND_URL",
	"automation.endpoint":       "AUTOMATION_ENDPOINT",
}

// Init loads the configuration from path and installs it as the process
// configuration returned by GetConfig.
func Init(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	config = cfg
	mu.Unlock()
	return cfg, nil
}

// GetConfig returns the configuration installed by Init.
func GetConfig() (*Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if config == nil {
		return nil, errors.New("config not initialized")
	}
	return config, nil
}

// LoadConfig reads the config file (optional when configPath is empty),
// applies environment overrides and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("/etc/weibo-agent")
		v.AddConfigPath("$HOME/.weibo-agent")
		v.AddConfigPath(".")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		AppName:     v.GetString("app_name"),
		RunMode:     v.GetString("run_mode"),
		Environment: v.GetString("environment"),
		Server:      getServerConfig(v),
		Logger:      lc.GetConfig(v),
		Data:        getDataConfig(v),
		Queue:       getQueueConfig(v),
		Weibo:       getWeiboConfig(v),
		LLM:         getLLMConfig(v),
		Automation:  getAutomationConfig(v),
		Frontend:    getFrontendConfig(v),
		Observes:    getObservesConfig(v),
		Viper:       v,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Weibo.OperationDelayMax < c.Weibo.OperationDelayMin {
		return fmt.Errorf("invalid config: weibo.operation_delay_max (%s) is below operation_delay_min (%s)",
			c.Weibo.OperationDelayMax, c.Weibo.OperationDelayMin)
	}
	if c.Queue.HardTimeLimit < c.Queue.SoftTimeLimit {
		return fmt.Errorf("invalid config: queue.hard_time_limit (%s) is below soft_time_limit (%s)",
			c.Queue.HardTimeLimit, c.Queue.SoftTimeLimit)
	}
	if c.Queue.Broker == BrokerRabbitMQ && c.Queue.AMQPURL == "" {
		return errors.New("invalid config: queue.amqp_url is required for the rabbitmq broker")
	}
	return nil
}

// IsDevelopment reports whether the service runs in debug mode.
func (c *Config) IsDevelopment() bool {
	return c.RunMode == "debug"
}
