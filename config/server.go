package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Server http server config struct
type Server struct {
	Host            string
	Port            int    `validate:"gte=1,lte=65535"`
	APIPrefix       string `validate:"startswith=/"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns host:port for net/http.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func getServerConfig(v *viper.Viper) *Server {
	return &Server{
		Host:            v.GetString("server.host"),
		Port:            v.GetInt("server.port"),
		APIPrefix:       v.GetString("server.api_prefix"),
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
	}
}
