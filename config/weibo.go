package config

import (
	"time"

	"github.com/spf13/viper"
)

// Weibo account automation settings
type Weibo struct {
	MaxDeletePerHour  int           `validate:"gte=1"`
	OperationDelayMin time.Duration `validate:"gte=0"`
	OperationDelayMax time.Duration `validate:"gte=0"`
	QRPollInterval    time.Duration `validate:"gt=0"`
	QRMaxPolls        int           `validate:"gte=1"`
	AnalyzeInterval   time.Duration `validate:"gte=0"`
	MaxRetries        int           `validate:"gte=1"`
	RetryBaseDelay    time.Duration `validate:"gte=0"`
}

// LLM text completion settings, any OpenAI compatible endpoint
type LLM struct {
	BaseURL     string        `validate:"required,url"`
	APIKey      string        `validate:"-"`
	Model       string        `validate:"required"`
	Temperature float32       `validate:"gte=0,lte=2"`
	MaxTokens   int           `validate:"gte=1"`
	Timeout     time.Duration `validate:"gt=0"`
}

// Automation browser automation sidecar settings
type Automation struct {
	Endpoint           string        `validate:"required,url"`
	Timeout            time.Duration `validate:"gt=0"`
	Headless           bool          `validate:"-"`
	BreakerMaxFailures uint32        `validate:"gte=1"`
	BreakerOpenTimeout time.Duration `validate:"gt=0"`
}

// seconds reads a key expressed in (possibly fractional) seconds.
func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetFloat64(key) * float64(time.Second))
}

func getWeiboConfig(v *viper.Viper) *Weibo {
	return &Weibo{
		MaxDeletePerHour:  v.GetInt("weibo.max_delete_per_hour"),
		OperationDelayMin: seconds(v, "weibo.operation_delay_min"),
		OperationDelayMax: seconds(v, "weibo.operation_delay_max"),
		QRPollInterval:    v.GetDuration("weibo.qr_poll_interval"),
		QRMaxPolls:        v.GetInt("weibo.qr_max_polls"),
		AnalyzeInterval:   v.GetDuration("weibo.analyze_interval"),
		MaxRetries:        v.GetInt("weibo.max_retries"),
		RetryBaseDelay:    v.GetDuration("weibo.retry_base_delay"),
	}
}

func getLLMConfig(v *viper.Viper) *LLM {
	return &LLM{
		BaseURL:     v.GetString("llm.base_url"),
		APIKey:      v.GetString("llm.api_key"),
		Model:       v.GetString("llm.model"),
		Temperature: float32(v.GetFloat64("llm.temperature")),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		Timeout:     v.GetDuration("llm.timeout"),
	}
}

func getAutomationConfig(v *viper.Viper) *Automation {
	return &Automation{
		Endpoint:           v.GetString("automation.endpoint"),
		Timeout:            v.GetDuration("automation.timeout"),
		Headless:           v.GetBool("automation.headless"),
		BreakerMaxFailures: v.GetUint32("automation.breaker_max_failures"),
		BreakerOpenTimeout: v.GetDuration("automation.breaker_open_timeout"),
	}
}
