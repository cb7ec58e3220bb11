// Package api is the HTTP transport of the study tracker
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/studycore/internal/logger"
)

type RouterConfig struct {
	AuthHandler    *AuthHandler
	AuthMiddleware *AuthMiddleware
	StudyHandler   *StudyHandler
	HealthHandler  *HealthHandler
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS(cfg.AllowedOrigins))
	r.MaxMultipartMemory = maxUploadSize

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		a := r.Group("/auth")
		a.GET("/login", cfg.AuthHandler.Login)
		a.GET("/callback", cfg.AuthHandler.Callback)
		a.GET("/logout", cfg.AuthHandler.Logout)
	}

	if cfg.StudyHandler == nil || cfg.AuthMiddleware == nil {
		return r
	}
	h := cfg.StudyHandler

	api := r.Group("/api")
	api.POST("/feedback", cfg.AuthMiddleware.OptionalAuth(), h.SubmitFeedback)

	protected := api.Group("")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/me", h.GetMe)
		protected.PUT("/me/preferences", h.UpdatePreferences)

		protected.POST("/topics", h.CreateTopic)
		protected.GET("/topics", h.ListTopics)
		protected.POST("/topics/import", h.ImportTopics)
		protected.GET("/topics/export", h.ExportHistory)
		protected.GET("/topics/:id", h.GetTopic)
		protected.DELETE("/topics/:id", h.DeleteTopic)
		protected.GET("/topics/:id/sessions", h.ListTopicSessions)

		protected.POST("/explain", h.RecordSession)
		protected.GET("/due-today", h.DueToday)

		protected.POST("/schedules", h.CreateSchedule)
		protected.GET("/schedules", h.ListSchedules)

		protected.GET("/analytics/stats", h.Stats)
	}
	return r
}

type Server struct {
	http *http.Server
	log  *logger.Logger
}

func NewServer(addr string, engine *gin.Engine, log *logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log.With("component", "http"),
	}
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
