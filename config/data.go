package config

import (
	"time"

	"github.com/spf13/viper"
)

// Data represents the data configuration
type Data struct {
	Redis *Redis `validate:"required"`
}

// Redis connection settings shared by the redis broker and job store.
type Redis struct {
	URL          string `validate:"required"`
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func getDataConfig(v *viper.Viper) *Data {
	return &Data{
		Redis: &Redis{
			URL:          v.GetString("data.redis.url"),
			DialTimeout:  v.GetDuration("data.redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("data.redis.read_timeout"),
			WriteTimeout: v.GetDuration("data.redis.write_timeout"),
		},
	}
}
