// Package data opens the stores backing the job runtime and builds the
// repository and broker selected by configuration.
package data

import (
	"context"
	"fmt"

	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/job/data/broker"
	"github.com/ncobase/weibo-agent/job/data/repository"
	"github.com/ncobase/weibo-agent/logging/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// Data holds the job repository, the broker and their connections.
type Data struct {
	rc       *redis.Client
	repo     repository.JobRepository
	broker   broker.Broker
	accounts *repository.AccountStore
}

// New connects the configured backends. The cleanup function closes them.
func New(ctx context.Context, dataCfg *config.Data, queueCfg *config.Queue) (*Data, func(), error) {
	d := &Data{}

	if queueCfg.Broker == config.BrokerRedis || queueCfg.Store == config.StoreRedis {
		rc, err := connectRedis(ctx, dataCfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		d.rc = rc
	}

	switch queueCfg.Store {
	case config.StoreRedis:
		d.repo = repository.NewRedis(d.rc, queueCfg.KeyPrefix, queueCfg.ResultExpires)
		d.accounts = repository.NewAccountStore(d.rc, queueCfg.KeyPrefix, queueCfg.HardTimeLimit)
	default:
		d.repo = repository.NewMemory(queueCfg.ResultExpires)
	}

	switch queueCfg.Broker {
	case config.BrokerRedis:
		d.broker = broker.NewRedis(d.rc, queueCfg.KeyPrefix)
	case config.BrokerRabbitMQ:
		conn, err := amqp.Dial(queueCfg.AMQPURL)
		if err != nil {
			d.Close()
			return nil, nil, fmt.Errorf("rabbitmq: failed to connect: %w", err)
		}
		b, err := broker.NewRabbitMQ(conn, queueCfg.KeyPrefix)
		if err != nil {
			_ = conn.Close()
			d.Close()
			return nil, nil, err
		}
		d.broker = b
	default:
		d.broker = broker.NewMemory(queueCfg.BufferSize)
	}

	logger.Info(ctx, "job data layer ready", "broker", queueCfg.Broker, "store", queueCfg.Store)

	return d, d.Close, nil
}

// NewWith wraps an existing repository and broker.
func NewWith(repo repository.JobRepository, b broker.Broker) *Data {
	return &Data{repo: repo, broker: b}
}

// Repository returns the job repository.
func (d *Data) Repository() repository.JobRepository {
	return d.repo
}

// Accounts returns the shared account store, or nil when jobs are stored in
// process.
func (d *Data) Accounts() *repository.AccountStore {
	return d.accounts
}

// Broker returns the job broker.
func (d *Data) Broker() broker.Broker {
	return d.broker
}

// Ping checks the connections that have one.
func (d *Data) Ping(ctx context.Context) error {
	if d.rc != nil {
		if err := d.rc.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: ping failed: %w", err)
		}
	}
	return nil
}

// Close releases every backend; errors are logged.
func (d *Data) Close() {
	ctx := context.Background()
	if d.broker != nil {
		if err := d.broker.Close(); err != nil {
			logger.Error(ctx, "failed to close broker", "error", err)
		}
	}
	if d.repo != nil {
		if err := d.repo.Close(); err != nil {
			logger.Error(ctx, "failed to close repository", "error", err)
		}
	}
	if d.rc != nil {
		if err := d.rc.Close(); err != nil {
			logger.Error(ctx, "failed to close redis", "error", err)
		}
	}
}

func connectRedis(ctx context.Context, cfg *config.Redis) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}
	return rc, nil
}
