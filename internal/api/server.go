// Package api exposes the dashboard over HTTP with gin. Routes are read-only
// and unauthenticated; the interesting work happens in the service layer.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fxdash/internal/cache"
	"fxdash/internal/config"
	"fxdash/internal/middleware"
	"fxdash/internal/monitoring"
	"fxdash/internal/service"
)

// Server represents the API server
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	handler    *DashboardHandler
	store      cache.Store
	metrics    *monitoring.Metrics
	log        *logrus.Logger
}

// NewServer creates the API server around an assembled dashboard service.
func NewServer(cfg *config.Config, dashboard *service.Dashboard, store cache.Store, metrics *monitoring.Metrics, log *logrus.Logger) *Server {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	server := &Server{
		config:  cfg,
		router:  gin.New(),
		handler: NewDashboardHandler(dashboard, log),
		store:   store,
		metrics: metrics,
		log:     log,
	}
	server.setupRoutes()
	return server
}

// Router returns the underlying gin engine, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.ErrorHandler(s.log))
	s.router.Use(middleware.CORS(s.config.CORS))
	s.router.Use(middleware.RateLimit(s.config.RateLimit, s.log))
	if s.metrics != nil {
		s.router.Use(s.metrics.MetricsMiddleware())
	}

	if s.config.Monitoring.PrometheusEnabled {
		s.router.GET(s.config.Monitoring.PrometheusPath, gin.WrapH(monitoring.PrometheusHandler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/currencies", s.handler.GetCurrencies)
		v1.GET("/convert", s.handler.GetConvert)
		v1.GET("/history", s.handler.GetHistory)
		v1.GET("/chart", s.handler.GetChart)

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/pivots", s.handler.GetPivots)
			analytics.GET("/volatility", s.handler.GetVolatility)
		}
	}

	s.router.GET("/health", s.health)
}

func (s *Server) health(c *gin.Context) {
	cacheHealth := "ok"
	if s.store != nil {
		if err := s.store.HealthCheck(c.Request.Context()); err != nil {
			cacheHealth = "degraded"
		}
	} else {
		cacheHealth = "unavailable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.config.App.Version,
		"time":    time.Now().UTC(),
		"services": gin.H{
			"cache": cacheHealth,
		},
	})
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	s.log.WithField("addr", s.httpServer.Addr).Info("starting API server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down server")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.WithError(err).Warn("error closing cache")
		}
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	s.log.Info("server stopped")
	return nil
}
