// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-review-wall/internal/config"
	"github.com/tbourn/go-review-wall/internal/http/handlers"
	"github.com/tbourn/go-review-wall/internal/http/middleware"
	"github.com/tbourn/go-review-wall/internal/media"
	"github.com/tbourn/go-review-wall/internal/repo"
	"github.com/tbourn/go-review-wall/internal/services"
)

// Deps are the long-lived components the routes are built on. They are
// created once in cmd/server.
type Deps struct {
	Store *repo.ReviewStore
	Media *media.Relocator
	IDs   *services.IDAllocator
	Idem  *repo.IdempotencyCache
	AI    services.AIClient
	Log   zerolog.Logger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the review API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (multipart bodies get the upload cap)
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limits
	r.Use(limitBody(cfg.MaxBodyBytes, cfg.MaxUploadBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(key string, now time.Time) bool {
			if d.Idem == nil {
				return false
			}
			rec, err := d.Idem.GetIdempotency(key, now)
			return err == nil && rec != nil
		},
	))

	// 8) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 9) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:       cfg.Security.EnableHSTS,
		HSTSMaxAge:       cfg.Security.HSTSMaxAge,
		EnablePolicy:     true,
		CrossOriginMedia: true,
	}))

	// Fallbacks
	r.NoRoute(noRoute(cfg))
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health at the root and under the API base
	r.GET("/health", handlers.Health)

	// Docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Relocated media
	r.GET(cfg.Storage.UploadsURLPrefix+"/*filepath", serveUploads(cfg.Storage.UploadDir))
	r.HEAD(cfg.Storage.UploadsURLPrefix+"/*filepath", serveUploads(cfg.Storage.UploadDir))

	// Dependency injection: services ← store/media/ai
	h := handlers.New(
		&services.ReviewService{
			Store:      d.Store,
			IDs:        d.IDs,
			Media:      d.Media,
			Idem:       d.Idem,
			RecordsDir: cfg.Storage.RecordsDir,
			Log:        d.Log,
		},
		&services.EnrichmentService{Store: d.Store, AI: d.AI, Log: d.Log},
		&services.PublicService{Store: d.Store},
		&services.UploadService{Media: d.Media, AI: d.AI, Log: d.Log},
		&services.AssistService{AI: d.AI},
	)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		if cfg.APIBasePath != "/" {
			api.GET("/health", handlers.Health)
		}

		// Reviews
		api.POST("/review", h.SubmitReview)
		api.POST("/like", h.Like)
		api.GET("/reviews", gzip.Gzip(gzip.DefaultCompression), h.ListReviews)
		api.GET("/reviews/tags", h.ListTags)

		// Media
		api.POST("/upload-video", h.UploadVideo)

		// AI
		api.POST("/summarize", h.Summarize)
		api.POST("/assist", h.Assist)
	}
}

// limitBody caps the request body with http.MaxBytesReader. Multipart
// requests get the upload cap, everything else the JSON/form cap.
func limitBody(maxBody, maxUpload int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBody
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = maxUpload
		}
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// corsMiddleware allows every origin when the allowlist is empty, otherwise
// only the listed ones.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey, "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotent-Replayed"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// serveUploads serves files from dir. Dot-prefixed segments (the staging
// directory among them) are never exposed and directories are not listed.
// Every file is sandboxed; anything but a recording is sent as an attachment.
func serveUploads(dir string) gin.HandlerFunc {
	fs := http.FileServer(gin.Dir(dir, false))
	return func(c *gin.Context) {
		p := path.Clean("/" + c.Param("filepath"))
		for _, seg := range strings.Split(p, "/") {
			if strings.HasPrefix(seg, ".") {
				handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "file not found")
				return
			}
		}
		if p == "/" {
			handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "file not found")
			return
		}
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil || info.IsDir() {
			handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "file not found")
			return
		}
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", "sandbox")
		if ct, ok := media.MediaContentType(path.Ext(p)); ok {
			h.Set("Content-Type", ct)
		} else {
			h.Set("Content-Disposition", "attachment")
		}
		c.Request.URL.Path = p
		fs.ServeHTTP(c.Writer, c.Request)
	}
}

// noRoute returns the JSON 404 fallback. When a built frontend is configured,
// GET requests outside the API are answered with the matching asset or the
// SPA entry point instead.
func noRoute(cfg config.Config) gin.HandlerFunc {
	static := cfg.Storage.StaticDir
	apiPrefix := cfg.APIBasePath
	return func(c *gin.Context) {
		if static != "" && c.Request.Method == http.MethodGet && !underPrefix(c.Request.URL.Path, apiPrefix) {
			p := path.Clean("/" + c.Request.URL.Path)
			candidate := filepath.Join(static, filepath.FromSlash(p))
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				c.File(candidate)
				return
			}
			index := filepath.Join(static, "index.html")
			if _, err := os.Stat(index); err == nil {
				c.File(index)
				return
			}
		}
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	}
}

func underPrefix(p, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
