// internal/api/router.go

// Package api exposes matching and selection over HTTP.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"vendor-matching/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	MatchHandler     *MatchHandler
	SelectionHandler *SelectionHandler
	HealthHandler    *HealthHandler
	CORSOrigins      []string
	Logger           logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	// RFQ ids and demand keys may contain an escaped slash.
	r.UseRawPath = true
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Metrics())
	r.Use(CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.Health)
		r.GET("/ready", cfg.HealthHandler.Ready)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		if cfg.MatchHandler != nil {
			api.GET("/vendors", cfg.MatchHandler.Vendors)
			api.POST("/matches", cfg.MatchHandler.Match)
			api.POST("/rfqs/match", cfg.MatchHandler.MatchRFQ)
		}

		if cfg.SelectionHandler != nil {
			api.PUT("/rfqs/:rfqId/selections/:demandKey", cfg.SelectionHandler.Put)
			api.GET("/rfqs/:rfqId/selections/:demandKey", cfg.SelectionHandler.Get)
		}
	}

	return r
}

type Server struct {
	Engine *gin.Engine
	srv    *http.Server
}

func NewServer(address string, cfg RouterConfig) *Server {
	engine := NewRouter(cfg)
	return &Server{
		Engine: engine,
		srv: &http.Server{
			Addr:              address,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Run() error {
	if err := s.srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
