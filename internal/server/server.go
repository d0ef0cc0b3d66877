package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"nse-dashboard/internal/dashboard"
	"nse-dashboard/internal/download"
	"nse-dashboard/internal/logger"
	"nse-dashboard/internal/store"
	"nse-dashboard/internal/trace"
)

const shutdownTimeout = 10 * time.Second

// Server exposes a Session over HTTP and pushes download progress over a
// websocket.
type Server struct {
	addr     string
	pageSize int
	session  *dashboard.Session
	engine   *gin.Engine
	hub      *hub
	cancel   func()
}

func New(cfg *store.Config, session *dashboard.Session) *Server {
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	origins := cfg.Server.AllowedOrigins
	s := &Server{
		addr:     cfg.Server.Addr,
		pageSize: cfg.Viewer.PageSize,
		session:  session,
		hub:      newHub(func(o string) bool { return slices.Contains(origins, o) }),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.HEAD("/health", s.health)
		api.GET("/last-date", s.lastDate)

		sel := api.Group("/selection")
		sel.GET("", s.getSelection)
		sel.DELETE("", s.clearSelection)
		sel.POST("/dates", s.addDate)
		sel.POST("/range", s.addRange)
		sel.DELETE("/dates/:date", s.removeDate)

		dl := api.Group("/downloads")
		dl.GET("", s.getDownloads)
		dl.POST("", s.startDownload)
		dl.DELETE("/completed", s.clearCompleted)

		api.GET("/sectors/performance/:date", s.sectorPerformance)
		api.GET("/sectors/volume-ratio", s.sectorVolume)
		api.GET("/stocks/movers", s.topMovers)
		api.POST("/stocks/volume-differences", s.volumeDifferences)
		api.GET("/bhavcopy", s.bhavcopy)
	}
	r.GET("/ws/downloads", s.downloadsSocket)

	s.engine = r
	s.cancel = session.Tracker.Subscribe(func(snap download.Snapshot) {
		s.hub.broadcast(downloadEvent{Type: "downloads", Snapshot: snap})
	})
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.cancel()

	srv := &http.Server{Addr: s.addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", s.addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info(ctx, "HTTP server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// requestLogger starts a span per request and logs the outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := trace.StartSpan(c.Request.Context(), "http "+c.Request.Method+" "+c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn(ctx, "HTTP request", fields...)
			return
		}
		logger.Debug(ctx, "HTTP request", fields...)
	}
}
