package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/internal/config"
	"github.com/jwalitptl/clinic-portal/internal/email"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/logger"
	"github.com/jwalitptl/clinic-portal/pkg/messaging"
	"github.com/jwalitptl/clinic-portal/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
)

const healthAddr = ":8081"

// Relay consumes notifications published by the portal, logs them and mails
// the ones that name a recipient.
type Relay struct {
	broker  messaging.Broker
	mailer  email.Service
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func (r *Relay) Start(ctx context.Context) error {
	messages, err := r.broker.Subscribe(ctx, messaging.NotificationsChannel)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	r.logger.Info("Notifier started", "channel", messaging.NotificationsChannel)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Notifier shutting down")
			return nil
		case payload, ok := <-messages:
			if !ok {
				return errors.New("notification channel closed")
			}
			r.handle(ctx, payload)
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload []byte) {
	var n model.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		r.metrics.ObserveRelay("invalid", err)
		r.logger.Error(err, "Dropping malformed notification")
		return
	}

	r.logger.ZL.Info().
		Str("client_id", n.ClientID).
		Str("kind", string(n.Kind)).
		Str("event", string(n.Event)).
		Time("created_at", n.CreatedAt).
		Msg(n.Message)

	if n.Recipient == "" || r.mailer == nil {
		r.metrics.ObserveRelay(string(n.Kind), nil)
		return
	}

	var err error
	switch n.Event {
	case model.EventRegistered:
		err = r.mailer.SendWelcome(ctx, n.Recipient, n.RecipientName)
	default:
		subject := n.Subject
		if subject == "" {
			subject = "Clinic portal"
		}
		err = r.mailer.SendCustom(ctx, n.Recipient, subject, n.Message)
	}
	r.metrics.ObserveRelay(string(n.Kind), err)
	if err != nil {
		r.logger.ZL.Error().Err(err).Str("recipient", n.Recipient).Msg("Failed to mail notification")
	}
}

func setupHealthCheck(l *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.ZL.Error().Err(err).Msg("Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	}).With("notifier")
	l.SetGlobal()

	if cfg.Redis.URL == "" {
		l.ZL.Fatal().Msg("redis.url is required by the notifier")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := redis.NewClient(ctx, redis.Config{URL: cfg.Redis.URL})
	if err != nil {
		l.Fatal(err, "Failed to connect to Redis")
	}
	broker := redis.NewRedisBroker(client, l.ZL)
	defer broker.Close()

	var mailer email.Service
	if cfg.SMTP.Enabled() {
		mailer = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		l.Warn("SMTP not configured, notifications are only logged")
	}

	relay := &Relay{
		broker:  broker,
		mailer:  mailer,
		logger:  l,
		metrics: metrics.NewMetrics("portal_notifier", nil),
	}

	health := setupHealthCheck(l)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		l.Info("Shutting down...")
		cancel()
	}()

	if err := relay.Start(ctx); err != nil {
		l.Error(err, "Notifier stopped")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	_ = health.Shutdown(shutdownCtx)
}
