// Package config loads weibo-agent settings with Viper.
//
// Settings come from an optional config file (config.yaml searched in
// /etc/weibo-agent, $HOME/.weibo-agent and the working directory) and from
// environment variables. Every key can be overridden with its upper-cased,
// underscore separated form (server.port -> SERVER_PORT). A few legacy
// variable names are bound explicitly:
//
//	DEEPSEEK_API_KEY     llm.api_key
//	DEEPSEEK_BASE_URL    llm.base_url
//	REDIS_URL            data.redis.url
//	MAX_DELETE_PER_HOUR  weibo.max_delete_per_hour
//	OPERATION_DELAY_MIN  weibo.operation_delay_min (seconds)
//	OPERATION_DELAY_MAX  weibo.operation_delay_max (seconds)
//	FRONTEND_URL         frontend.url
//
// Example YAML:
//
//	app_name: weibo-agent
//	server:
//	  port: 8000
//	queue:
//	  broker: redis
//	  store: redis
//	  analysis_workers: 2
//	  deletion_workers: 1
//	weibo:
//	  max_delete_per_hour: 100
package config
