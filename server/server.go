package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"energy-scraper/config"
	"energy-scraper/models"
	"energy-scraper/pipeline"
	"energy-scraper/storage"
	"energy-scraper/utils"
)

// Fetcher is the part of the pipeline the HTTP adapter needs
type Fetcher interface {
	Spec(cat models.Category) (models.CategorySpec, error)
	Fetch(ctx context.Context, sel pipeline.Selection, r models.DateRange) (models.Dataset, error)
	Compare(ctx context.Context, a, b pipeline.Selection, r models.DateRange) (models.Dataset, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg     *config.Config
	fetcher Fetcher
	store   storage.SnapshotStore
	engine  *gin.Engine
	logger  *utils.Logger
}

// New constructs a server with routes and middleware. store may be nil, which disables snapshots.
func New(cfg *config.Config, fetcher Fetcher, store storage.SnapshotStore, logger *utils.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	server := &Server{cfg: cfg, fetcher: fetcher, store: store, engine: engine, logger: logger}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("HTTP server listening on %s", srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/datasets/:category", s.handleDataset)
		v1.GET("/compare", s.handleCompare)
	}

	snapshots := v1.Group("/snapshots")
	{
		snapshots.GET("/:id", s.handleSnapshot)
		snapshots.GET("/:id/stats", s.handleSnapshotStats)
		snapshots.GET("/:id/export", s.handleSnapshotExport)
		snapshots.DELETE("/:id", s.handleSnapshotDelete)
	}
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRange),
		errors.Is(err, models.ErrUnknownCategory),
		errors.Is(err, models.ErrUnknownSubset),
		errors.Is(err, models.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNoValues):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
