// Package server builds the HTTP engine of the weibo agent.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ncobase/weibo-agent/config"
	"github.com/ncobase/weibo-agent/ecode"
	"github.com/ncobase/weibo-agent/job/data"
	"github.com/ncobase/weibo-agent/job/handler"
	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/metrics"
	"github.com/ncobase/weibo-agent/net/resp"
	"github.com/ncobase/weibo-agent/version"
)

// Server serves the weibo job API.
type Server struct {
	config  *config.Config
	data    *data.Data
	handler *handler.WeiboHandler
	engine  *gin.Engine
}

// NewServer creates a server and its router.
func NewServer(cfg *config.Config, d *data.Data, h *handler.WeiboHandler) *Server {
	s := &Server{
		config:  cfg,
		data:    d,
		handler: h,
	}
	s.engine = s.setupRouter()
	return s
}

// Engine returns the router.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) setupRouter() *gin.Engine {
	if s.config.RunMode != "" {
		gin.SetMode(s.config.RunMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(traceMiddleware())
	r.Use(loggerMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Frontend.AllowedOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", traceHeader},
		ExposeHeaders:    []string{traceHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", s.welcome)
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(s.config.Server.APIPrefix)
	s.handler.Register(api)

	return r
}

func (s *Server) welcome(c *gin.Context) {
	resp.Success(c.Writer, map[string]any{
		"message": fmt.Sprintf("welcome to %s", s.config.AppName),
		"version": version.GetVersionInfo().Version,
		"docs":    s.config.Server.APIPrefix,
		"health":  "/health",
	})
}

func (s *Server) health(c *gin.Context) {
	body := map[string]any{
		"status":  "healthy",
		"service": s.config.AppName,
		"version": version.GetVersionInfo().Version,
	}
	if err := s.data.Ping(c.Request.Context()); err != nil {
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		resp.Fail(c.Writer, &resp.Exception{Status: http.StatusServiceUnavailable, Code: ecode.ServiceUnavailable, Data: body})
		return
	}
	resp.Success(c.Writer, body)
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.config.Server
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info(ctx, "server exited")
	return nil
}
