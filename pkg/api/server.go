// Package api serves price predictions over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nopgae/usedcararoundme/pkg/artifact"
	"github.com/nopgae/usedcararoundme/pkg/model"
	"github.com/nopgae/usedcararoundme/pkg/pipeline"
)

// Snapshot is one consistent set of serving artifacts. A nil field means
// that artifact was not available when the snapshot was loaded.
type Snapshot struct {
	Preprocessor *pipeline.Preprocessor
	Model        model.Estimator
	Info         *artifact.ModelInfo
	LoadedAt     time.Time
}

// Server holds the current snapshot. Requests read it without locking;
// Reload replaces it in one swap.
type Server struct {
	store  *artifact.Store
	logger *slog.Logger
	snap   atomic.Pointer[Snapshot]
}

func NewServer(store *artifact.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger}
	s.snap.Store(&Snapshot{})
	return s
}

// Snapshot returns the snapshot currently served.
func (s *Server) Snapshot() *Snapshot { return s.snap.Load() }

// Reload loads the default model and its preprocessing state from the store
// and swaps them in together. The state stored with the model wins over
// encoders.gob and scaler.gob, so a model is never served through state it
// was not trained with. Missing artifacts leave the matching field nil; an
// unreadable artifact fails the reload and keeps the previous snapshot.
func (s *Server) Reload() error {
	next := &Snapshot{LoadedAt: time.Now()}

	var state *pipeline.State
	b, err := s.store.LoadBundle("")
	switch {
	case err == nil:
		next.Model, next.Info, state = b.Model, b.Info, b.State
	case errors.Is(err, artifact.ErrNotFound):
		s.logger.Warn("model not found; predictions are unavailable", "dir", s.store.Dir)
	default:
		return err
	}

	if state == nil {
		state, err = s.store.LoadState()
		if errors.Is(err, artifact.ErrNotFound) {
			s.logger.Warn("preprocessing state not found", "dir", s.store.Dir)
		} else if err != nil {
			return err
		}
	}
	if state != nil {
		next.Preprocessor = pipeline.New(pipeline.WithState(state), pipeline.WithLogger(s.logger))
	}

	s.snap.Store(next)
	if next.Info != nil {
		s.logger.Info("loaded model", "model", next.Info.ModelType, "r2", next.Info.R2Score,
			"features", next.Info.NumFeatures)
	}
	return nil
}

// Router builds the gin engine with every route and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLogger(), cors())

	r.GET("/", s.root)
	r.POST("/predict/", s.predict)
	r.POST("/predict", s.predict)
	r.GET("/models/info", s.modelInfo)
	r.GET("/health", s.health)
	r.GET("/car-data/options", s.options)
	return r
}

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString("request_id"))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
