package config

import (
	"time"

	"github.com/spf13/viper"
)

// Broker kinds
const (
	BrokerMemory   = "memory"
	BrokerRedis    = "redis"
	BrokerRabbitMQ = "rabbitmq"
)

// Store kinds
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Queue job queue and worker runtime settings. AnalysisWorkers serve login
// and analyze jobs, DeletionWorkers serve delete jobs only.
type Queue struct {
	Broker             string `validate:"oneof=memory redis rabbitmq"`
	Store              string `validate:"oneof=memory redis"`
	AMQPURL            string
	KeyPrefix          string        `validate:"required"`
	AnalysisWorkers    int           `validate:"gte=1"`
	DeletionWorkers    int           `validate:"gte=1"`
	BufferSize         int           `validate:"gte=1"`
	SoftTimeLimit      time.Duration `validate:"gt=0"`
	HardTimeLimit      time.Duration `validate:"gt=0"`
	ResultExpires      time.Duration `validate:"gt=0"`
	RevokePollInterval time.Duration `validate:"gt=0"`
}

// Distributed reports whether jobs can be shared between processes.
func (q *Queue) Distributed() bool {
	return q.Broker != BrokerMemory && q.Store != StoreMemory
}

func getQueueConfig(v *viper.Viper) *Queue {
	return &Queue{
		Broker:             v.GetString("queue.broker"),
		Store:              v.GetString("queue.store"),
		AMQPURL:            v.GetString("queue.amqp_url"),
		KeyPrefix:          v.GetString("queue.key_prefix"),
		AnalysisWorkers:    v.GetInt("queue.analysis_workers"),
		DeletionWorkers:    v.GetInt("queue.deletion_workers"),
		BufferSize:         v.GetInt("queue.buffer_size"),
		SoftTimeLimit:      v.GetDuration("queue.soft_time_limit"),
		HardTimeLimit:      v.GetDuration("queue.hard_time_limit"),
		ResultExpires:      v.GetDuration("queue.result_expires"),
		RevokePollInterval: v.GetDuration("queue.revoke_poll_interval"),
	}
}
