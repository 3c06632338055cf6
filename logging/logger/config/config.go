package config

import (
	"github.com/spf13/viper"
)

// Config configuration struct
type Config struct {
	Level      int    `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"`
	Output     string `json:"output" yaml:"output"`
	OutputFile string `json:"output_file" yaml:"output_file"`
	// SensitiveFields are masked wherever they appear as log field keys.
	SensitiveFields []string `json:"sensitive_fields" yaml:"sensitive_fields"`
	// MaxFieldLength truncates long string fields such as base64 qr images.
	MaxFieldLength int `json:"max_field_length" yaml:"max_field_length"`
	// ReportErrors forwards error level entries to sentry when a client is bound.
	ReportErrors bool `json:"report_errors" yaml:"report_errors"`
}

var defaultSensitiveFields = []string{
	"password", "passwd", "pwd",
	"token", "access_token", "api_key", "apikey", "secret", "cookie",
}

// Default returns the configuration used when no logger section is present.
func Default() *Config {
	return &Config{
		Level:           4,
		Format:          "text",
		Output:          "stdout",
		SensitiveFields: defaultSensitiveFields,
		MaxFieldLength:  256,
	}
}

// GetConfig returns the logger configuration
func GetConfig(v *viper.Viper) *Config {
	cfg := Default()
	if !v.IsSet("logger") {
		return cfg
	}

	if v.IsSet("logger.level") {
		cfg.Level = v.GetInt("logger.level")
	}
	if f := v.GetString("logger.format"); f != "" {
		cfg.Format = f
	}
	if o := v.GetString("logger.output"); o != "" {
		cfg.Output = o
	}
	cfg.OutputFile = v.GetString("logger.output_file")
	if fields := v.GetStringSlice("logger.sensitive_fields"); len(fields) > 0 {
		cfg.SensitiveFields = fields
	}
	if v.IsSet("logger.max_field_length") {
		cfg.MaxFieldLength = v.GetInt("logger.max_field_length")
	}
	cfg.ReportErrors = v.GetBool("logger.report_errors")

	return cfg
}
