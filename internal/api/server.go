// Package api serves the mobile client over JSON HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/analyzer"
	"github.com/xaenox/pocket-therapy/internal/checkin"
	"github.com/xaenox/pocket-therapy/internal/crisis"
	"github.com/xaenox/pocket-therapy/internal/recommender"
	"github.com/xaenox/pocket-therapy/internal/storage"
)

type Deps struct {
	Checkin      *checkin.Service
	Catalog      storage.CatalogStorage
	Analyzer     *analyzer.Analyzer
	Recommender  *recommender.Recommender
	Locator      *crisis.Locator
	DefaultLimit int
}

type Server struct {
	engine *gin.Engine
	deps   Deps
	logger *zap.Logger
}

func New(deps Deps, logger *zap.Logger) *Server {
	if deps.DefaultLimit <= 0 {
		deps.DefaultLimit = recommender.DefaultLimit
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{engine: engine, deps: deps, logger: logger}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")
	{
		users := v1.Group("/users/:id")
		users.POST("/moods", s.createMood)
		users.GET("/moods", s.listMoods)
		users.PATCH("/moods/:entryID", s.editMoodNote)
		users.GET("/analysis", s.analysis)
		users.POST("/sessions", s.startSession)
		users.POST("/sessions/:sessionID/complete", s.completeSession)
		users.GET("/preferences", s.getPreferences)
		users.PUT("/preferences", s.putPreferences)

		v1.GET("/exercises", s.listExercises)
		v1.POST("/recommendations", s.recommendations)

		v1.GET("/crisis/exercises", s.crisisExercises)
		v1.GET("/crisis/resources", s.crisisResources)
		v1.GET("/crisis/emergency", s.emergency)
		v1.POST("/crisis/contact", s.contact)

		v1.GET("/maintenance/stale-resources", s.staleResources)
	}

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
