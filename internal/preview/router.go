// Package preview serves the compiler, budget compiler and duplicate detector
// over HTTP so an editor can preview a scenario without writing files.
package preview

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/planforge/internal/duplicates"
	"github.com/rgehrsitz/planforge/internal/logging"
	"github.com/rgehrsitz/planforge/internal/projection"
	"github.com/rs/zerolog"
)

// Config holds what the router needs from the process
type Config struct {
	Logger      zerolog.Logger
	CORSOrigins []string
	Version     string

	// Now is the clock used for base month inference; nil means time.Now
	Now func() time.Time
}

// Controller carries the dependencies of the request handlers
type Controller struct {
	log        zerolog.Logger
	now        func() time.Time
	version    string
	detector   *duplicates.Detector
	calculator projection.Calculator
}

// NewRouter sets up the engine, its middlewares and all routes
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// client IPs are never used
	r.ForwardedByClientIP = false
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithLogger(func(c *gin.Context, _ zerolog.Logger) zerolog.Logger {
			return cfg.Logger.With().
				Str("request-id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Int("size", c.Writer.Size()).
				Logger()
		})))
	r.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, "method not allowed for this endpoint")
	})
	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "no such endpoint")
	})

	if len(cfg.CORSOrigins) > 0 {
		cfg.Logger.Debug().Strs("origins", cfg.CORSOrigins).Msg("CORS enabled")
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{"OPTIONS", "GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Length", "Content-Type"},
		}))
	}

	_ = r.SetTrustedProxies([]string{})

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	detector := duplicates.NewDetector()
	detector.Logger = logging.Zerolog{Logger: cfg.Logger}

	co := Controller{
		log:        cfg.Logger,
		now:        now,
		version:    cfg.Version,
		detector:   detector,
		calculator: projection.CashLedger{},
	}
	co.AttachRoutes(r.Group("/"))
	return r
}

// AttachRoutes registers the health check and the v1 API on group
func (co Controller) AttachRoutes(group *gin.RouterGroup) {
	group.GET("/healthz", co.Health)

	v1 := group.Group("/v1")
	{
		v1.POST("/compile", co.Compile)
		v1.POST("/budget", co.Budget)
		v1.POST("/project", co.Project)
		v1.POST("/duplicates", co.Duplicates)
		v1.POST("/merge", co.Merge)
		v1.POST("/diff", co.Diff)
	}
}

// HTTPError is the body of every error response
type HTTPError struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Ref       string `json:"ref,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, HTTPError{Error: msg, RequestID: requestid.Get(c)})
}
