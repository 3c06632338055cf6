package config

import "github.com/spf13/viper"

// Frontend frontend config struct
type Frontend struct {
	URL string `validate:"required"`
}

// AllowedOrigins returns the CORS origins, always including the local dev
// server.
func (f *Frontend) AllowedOrigins() []string {
	const local = "http://localhost:3000"
	if f.URL == "" || f.URL == local {
		return []string{local}
	}
	return []string{f.URL, local}
}

func getFrontendConfig(v *viper.Viper) *Frontend {
	return &Frontend{
		URL: v.GetString("frontend.url"),
	}
}
