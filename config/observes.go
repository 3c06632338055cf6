package config

import (
	"time"

	"github.com/spf13/viper"
)

// Observes groups tracing and error reporting settings.
type Observes struct {
	Tracer *Tracer `validate:"required"`
	Sentry *Sentry `validate:"required"`
}

// Sentry config struct
type Sentry struct {
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`
	Environment string  `json:"environment" yaml:"environment"`
	Release     string  `json:"release" yaml:"release"`
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`
}

// Tracer config struct for OpenTelemetry
type Tracer struct {
	Endpoint      string        `json:"endpoint" yaml:"endpoint"` // OTLP gRPC endpoint
	SamplingRate  float64       `json:"sampling_rate" yaml:"sampling_rate"`
	BatchTimeout  time.Duration `json:"batch_timeout" yaml:"batch_timeout"`
	ExportTimeout time.Duration `json:"export_timeout" yaml:"export_timeout"`
	Insecure      bool          `json:"insecure" yaml:"insecure"`
}

func getObservesConfig(v *viper.Viper) *Observes {
	return &Observes{
		Tracer: &Tracer{
			Endpoint:      v.GetString("observes.tracer.endpoint"),
			SamplingRate:  v.GetFloat64("observes.tracer.sampling_rate"),
			BatchTimeout:  v.GetDuration("observes.tracer.batch_timeout"),
			ExportTimeout: v.GetDuration("observes.tracer.export_timeout"),
			Insecure:      v.GetBool("observes.tracer.insecure"),
		},
		Sentry: &Sentry{
			Endpoint:    v.GetString("observes.sentry.endpoint"),
			Environment: v.GetString("environment"),
			Release:     v.GetString("observes.sentry.release"),
			SampleRate:  v.GetFloat64("observes.sentry.sample_rate"),
		},
	}
}
