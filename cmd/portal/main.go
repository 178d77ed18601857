package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-portal/internal/config"
	"github.com/jwalitptl/clinic-portal/internal/handler"
	appointmentHandler "github.com/jwalitptl/clinic-portal/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-portal/internal/handler/auth"
	identityHandler "github.com/jwalitptl/clinic-portal/internal/handler/identity"
	reportHandler "github.com/jwalitptl/clinic-portal/internal/handler/report"
	"github.com/jwalitptl/clinic-portal/internal/idp"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/internal/repository/memory"
	redisRepo "github.com/jwalitptl/clinic-portal/internal/repository/redis"
	"github.com/jwalitptl/clinic-portal/internal/router"
	"github.com/jwalitptl/clinic-portal/internal/service/appointment"
	"github.com/jwalitptl/clinic-portal/internal/service/notification"
	"github.com/jwalitptl/clinic-portal/internal/service/report"
	"github.com/jwalitptl/clinic-portal/internal/service/session"
	"github.com/jwalitptl/clinic-portal/pkg/auth"
	"github.com/jwalitptl/clinic-portal/pkg/logger"
	"github.com/jwalitptl/clinic-portal/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
	"github.com/jwalitptl/clinic-portal/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})
	l.SetGlobal()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("portal", nil)

	tokens, err := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiry(),
		Verify: cfg.JWT.Verify || cfg.Identity.Mode == config.IdentityModeMock,
	})
	if err != nil {
		l.Fatal(err, "failed to configure token service")
	}

	identities := memory.NewIdentityRepository()
	appointments := memory.NewAppointmentRepository()

	var (
		tokenRepo repository.TokenRepository = memory.NewTokenRepository(time.Minute)
		relay     notification.Notifier
		checks    = map[string]handler.ReadinessCheck{}
	)
	if cfg.Redis.URL != "" {
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.Redis.URL})
		if err != nil {
			l.Fatal(err, "failed to connect to Redis")
		}
		defer client.Close()

		tokenRepo = redisRepo.NewTokenRepository(client)
		broker := redis.NewRedisBroker(client, l.With("broker").ZL)
		relay = notification.NewBrokerNotifier(broker, "", l.With("notifications").ZL)
		checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, client) }
	}

	var (
		provider      idp.Provider
		directory     repository.IdentityRepository
		adminHandlers []router.Handler
	)
	switch cfg.Identity.Mode {
	case config.IdentityModeMock:
		mock := idp.NewMock(identities, security.NewBcryptHasher(0), tokens)
		if err := mock.Load(ctx, cfg.Identity.Seeds); err != nil {
			l.Fatal(err, "failed to load seed identities")
		}
		provider = mock
		directory = identities
		adminHandlers = append(adminHandlers, identityHandler.NewHandler(identities))
	case config.IdentityModeRemote:
		remote := idp.NewRemote(idp.RemoteConfig{BaseURL: cfg.APIURL, Timeout: cfg.Identity.Timeout}, tokens, m)
		provider = idp.NewRecording(remote, identities, l.With("idp").ZL)
		directory = identities
	}

	policy, err := appointment.PolicyByName(cfg.Appointments.TransitionPolicy)
	if err != nil {
		l.Fatal(err, "invalid appointment configuration")
	}
	appointmentSvc := appointment.NewService(appointments, directory, policy, m)

	var reporter report.Reporter
	switch cfg.Reports.Source {
	case config.ReportSourceRemote:
		reporter = report.NewRemote(report.RemoteConfig{BaseURL: cfg.APIURL, Timeout: cfg.Identity.Timeout}, m)
	default:
		reporter = report.NewLocal(appointments, identities)
	}
	cachedReports := report.NewCached(reporter, cfg.Reports.CacheTTL)
	appointmentSvc.OnChange(cachedReports.Invalidate)
	reporter = cachedReports

	registry := session.NewRegistry(session.Deps{
		Provider: provider,
		Tokens:   tokenRepo,
		Metrics:  m,
		Logger:   l.With("session").ZL,
	}, relay, cfg.Session.IdleTTL)

	loc, _ := cfg.Appointments.Location()
	aptH := appointmentHandler.NewHandler(appointmentSvc, loc)
	authH := authHandler.NewHandler()
	adminHandlers = append(adminHandlers,
		router.RouteFunc(aptH.RegisterAdminRoutes),
		reportHandler.NewHandler(reporter),
	)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	}

	r := router.NewRouter(registry, router.Handlers{
		Health:  handler.NewHandler(nil, checks),
		Auth:    router.RouteFunc(authH.RegisterAuthRoutes),
		Session: authH,
		Patient: []router.Handler{router.RouteFunc(aptH.RegisterPatientRoutes)},
		Doctor:  []router.Handler{router.RouteFunc(aptH.RegisterDoctorRoutes)},
		Admin:   adminHandlers,
	}, router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RateLimit:      rate.Limit(cfg.RateLimit.RPS),
		RateBurst:      cfg.RateLimit.Burst,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		CORSConfig:     corsConfig,
		Security:       middleware.DefaultSecurityConfig(),
		ClientCookie: middleware.ClientCookieConfig{
			Name:   cfg.Session.CookieName,
			MaxAge: int(cfg.Session.IdleTTL.Seconds()),
			Secure: cfg.Session.CookieSecure,
		},
		MetricsPrefix: "portal_http",
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		l.ZL.Info().
			Int("port", cfg.Server.Port).
			Str("identity_mode", cfg.Identity.Mode).
			Str("reports", cfg.Reports.Source).
			Str("transition_policy", policy.Name()).
			Msg("portal listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("shutting down server...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Fatal(err, "server forced to shutdown")
	}

	l.Info("server exited properly")
}

func pingRedis(ctx context.Context, client goredis.UniversalClient) error {
	return client.Ping(ctx).Err()
}
