package sources

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ariel-frischer/changecast/internal/build"
	"github.com/ariel-frischer/changecast/internal/logging"
)

// Server serves the registry contract over HTTP.
type Server struct {
	registry  *Registry
	retriever Retriever
	checker   *Checker
	hub       *Hub
	logger    *slog.Logger
}

// NewServer wires a registry, its retriever and an update hub.
func NewServer(registry *Registry, retriever Retriever, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	hub := NewHub(logger)
	return &Server{
		registry:  registry,
		retriever: retriever,
		checker:   NewChecker(registry, retriever, hub.Broadcast, logger),
		hub:       hub,
		logger:    logger,
	}
}

// Checker returns the checker feeding the update hub.
func (s *Server) Checker() *Checker {
	return s.checker
}

// Hub returns the update hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the gin engine with all routes.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": build.Version})
	})
	api := r.Group("/api")
	{
		api.GET("/sources", s.listSources)
		api.GET("/sources/:id/changelog", s.sourceChangelog)
	}
	r.GET("/ws/updates", gin.WrapH(s.hub))
	return r
}

func (s *Server) listSources(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.List())
}

func (s *Server) sourceChangelog(c *gin.Context) {
	id := c.Param("id")
	entry, _, ok := s.registry.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found: " + id})
		return
	}

	markdown, err := s.retriever.Retrieve(c.Request.Context(), entry)
	if err != nil {
		s.logger.Warn("upstream changelog fetch failed",
			logging.String("source", entry.Name),
			logging.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch changelog: " + err.Error()})
		return
	}
	s.checker.Observe(entry, markdown)

	_, src, _ := s.registry.Lookup(id)
	c.JSON(http.StatusOK, ChangelogResponse{Markdown: markdown, Source: src})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}

// ListenAndServe serves on addr and runs the checker every interval until
// ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, interval time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.checker.Run(checkCtx, interval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sources registry listening", logging.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
