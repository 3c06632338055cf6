package logger

import (
	"strings"

	"github.com/ncobase/weibo-agent/logging/logger/config"
	"github.com/sirupsen/logrus"
)

const mask = "******"

type redactor struct {
	fields map[string]struct{}
	maxLen int
}

func newRedactor(cfg *config.Config) *redactor {
	r := &redactor{fields: make(map[string]struct{}, len(cfg.SensitiveFields)), maxLen: cfg.MaxFieldLength}
	for _, f := range cfg.SensitiveFields {
		r.fields[strings.ToLower(f)] = struct{}{}
	}
	return r
}

func (r *redactor) sensitive(key string) bool {
	key = strings.ToLower(key)
	if _, ok := r.fields[key]; ok {
		return true
	}
	for f := range r.fields {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

// apply masks sensitive keys and truncates oversized strings in place.
func (r *redactor) apply(fields logrus.Fields) logrus.Fields {
	if r == nil {
		return fields
	}
	for k, v := range fields {
		if r.sensitive(k) {
			fields[k] = mask
			continue
		}
		if s, ok := v.(string); ok && r.maxLen > 0 && len(s) > r.maxLen {
			fields[k] = s[:r.maxLen] + "...(truncated)"
		}
	}
	return fields
}
