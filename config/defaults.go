package config

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "weibo-agent")
	v.SetDefault("run_mode", "release")
	v.SetDefault("environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("data.redis.url", "redis://localhost:6379/0")
	v.SetDefault("data.redis.dial_timeout", 5*time.Second)
	v.SetDefault("data.redis.read_timeout", 3*time.Second)
	v.SetDefault("data.redis.write_timeout", 3*time.Second)

	v.SetDefault("queue.broker", BrokerMemory)
	v.SetDefault("queue.store", StoreMemory)
	v.SetDefault("queue.key_prefix", "weibo-agent")
	v.SetDefault("queue.analysis_workers", 2)
	v.SetDefault("queue.deletion_workers", 1)
	v.SetDefault("queue.buffer_size", 1024)
	v.SetDefault("queue.soft_time_limit", 25*time.Minute)
	v.SetDefault("queue.hard_time_limit", 30*time.Minute)
	v.SetDefault("queue.result_expires", time.Hour)
	v.SetDefault("queue.revoke_poll_interval", time.Second)

	v.SetDefault("weibo.max_delete_per_hour", 100)
	v.SetDefault("weibo.operation_delay_min", 2)
	v.SetDefault("weibo.operation_delay_max", 10)
	v.SetDefault("weibo.qr_poll_interval", 5*time.Second)
	v.SetDefault("weibo.qr_max_polls", 60)
	v.SetDefault("weibo.analyze_interval", time.Second)
	v.SetDefault("weibo.max_retries", 3)
	v.SetDefault("weibo.retry_base_delay", time.Second)

	v.SetDefault("llm.base_url", "https://api.deepseek.com")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 8192)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("automation.endpoint", "http://localhost:9242")
	v.SetDefault("automation.timeout", 10*time.Minute)
	v.SetDefault("automation.headless", true)
	v.SetDefault("automation.breaker_max_failures", 5)
	v.SetDefault("automation.breaker_open_timeout", time.Minute)

	v.SetDefault("frontend.url", "http://localhost:3000")

	v.SetDefault("observes.tracer.sampling_rate", 1.0)
	v.SetDefault("observes.tracer.batch_timeout", 5*time.Second)
	v.SetDefault("observes.tracer.export_timeout", 30*time.Second)
	v.SetDefault("observes.sentry.sample_rate", 1.0)
}
