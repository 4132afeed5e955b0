package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medconnect/booking-api/internal/hub"
	"github.com/medconnect/booking-api/internal/notifier"
	"github.com/medconnect/booking-api/pkg/logger"
	redismsg "github.com/medconnect/booking-api/pkg/messaging/redis"
	"github.com/medconnect/booking-api/pkg/metrics"
)

// workerConfig is read from the environment; the worker runs without any
// config file so it can be deployed standalone.
type workerConfig struct {
	RedisURL   string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	HealthPort int    `envconfig:"HEALTH_PORT" default:"8081"`
}

// The worker owns the expiry subscription when the API runs with the embedded
// notifier disabled. Exactly one subscriber per deployment: each expired hold
// must produce exactly one freed event.
func main() {
	log := logger.NewLogger(nil).ZL

	var cfg workerConfig
	if err := envconfig.Process("booking", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker config")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping redis")
	}
	defer client.Close()

	m := metrics.New("booking_worker")
	broker := redismsg.NewBrokerWithClient(client, &log)
	slotHub := hub.New(broker, log, m)
	defer slotHub.Close()

	expiry := notifier.NewExpiryNotifier(client, slotHub, log, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		// Ready once the expiry subscription is established.
		if expiry.State() != notifier.StateListening {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	healthSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HealthPort),
		Handler: mux,
	}
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	log.Info().Msg("expiry worker starting")
	expiry.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	log.Info().Msg("expiry worker stopped")
}
