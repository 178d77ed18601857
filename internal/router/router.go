package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/session"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// RouteFunc adapts a route registration method to Handler.
type RouteFunc func(*gin.RouterGroup)

func (f RouteFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

// Handlers groups route registrations by who may reach them.
type Handlers struct {
	Health *handler.Handler
	// Auth routes are rate limited.
	Auth    Handler
	Session Handler
	Patient []Handler
	Doctor  []Handler
	Admin   []Handler
}

type Router struct {
	engine   *gin.Engine
	registry *session.Registry
	handlers Handlers
	config   RouterConfig
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	CORSConfig     middleware.CORSConfig
	Security       middleware.SecurityConfig
	ClientCookie   middleware.ClientCookieConfig
	MetricsPrefix  string
	// Registerer receives the HTTP metrics; the default registerer when nil.
	Registerer prometheus.Registerer
}

func NewRouter(registry *session.Registry, handlers Handlers, config RouterConfig) *Router {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	engine := gin.New()

	r := &Router{
		engine:   engine,
		registry: registry,
		handlers: handlers,
		config:   config,
		metrics:  initRouterMetrics(config.MetricsPrefix, config.Registerer),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.ErrorHandler(),
		middleware.Timeout(config.RequestTimeout),
		middleware.SecurityHeaders(config.Security),
		middleware.CORS(config.CORSConfig),
	)

	return r
}

// Setup mounts every route. Dashboard groups sit behind the role gate.
func (r *Router) Setup() {
	r.setupHealthCheck(r.engine.Group(""))

	portal := r.engine.Group("")
	portal.Use(
		middleware.BodyLimit(r.config.MaxBodyBytes),
		middleware.ClientContext(r.registry, r.config.ClientCookie),
	)

	if r.handlers.Auth != nil {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.RateLimit,
			Burst: r.config.RateBurst,
		})
		auth := portal.Group("")
		auth.Use(limiter.RateLimit())
		r.handlers.Auth.RegisterRoutes(auth)
	}
	if r.handlers.Session != nil {
		r.handlers.Session.RegisterRoutes(portal)
	}

	r.setupDashboard(portal, string(ScreenPatient), model.RolePatient, r.handlers.Patient)
	r.setupDashboard(portal, string(ScreenDoctor), model.RoleDoctor, r.handlers.Doctor)
	r.setupDashboard(portal, string(ScreenAdmin), model.RoleAdmin, r.handlers.Admin)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	if r.handlers.Health == nil {
		return
	}
	health := rg.Group("/health")
	{
		health.GET("/live", r.handlers.Health.LivenessCheck)
		health.GET("/ready", r.handlers.Health.ReadinessCheck)
	}
	rg.GET("/metrics", r.handlers.Health.MetricsHandler)
}

func (r *Router) setupDashboard(rg *gin.RouterGroup, prefix string, role model.Role, handlers []Handler) {
	if len(handlers) == 0 {
		return
	}
	group := rg.Group(prefix)
	group.Use(middleware.RequireRole(Dashboard, role))
	for _, h := range handlers {
		h.RegisterRoutes(group)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string, reg prometheus.Registerer) *routerMetrics {
	if prefix == "" {
		prefix = "portal_http"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &routerMetrics{
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := fmt.Sprintf("%d", c.Writer.Status())

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		switch {
		case c.Writer.Status() >= 500:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		case c.Writer.Status() >= 400:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
