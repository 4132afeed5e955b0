package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medconnect/booking-api/internal/config"
	"github.com/medconnect/booking-api/internal/handler"
	appointmenthandler "github.com/medconnect/booking-api/internal/handler/appointment"
	authhandler "github.com/medconnect/booking-api/internal/handler/auth"
	chathandler "github.com/medconnect/booking-api/internal/handler/chat"
	familyhandler "github.com/medconnect/booking-api/internal/handler/family"
	schedulehandler "github.com/medconnect/booking-api/internal/handler/schedule"
	slothandler "github.com/medconnect/booking-api/internal/handler/slot"
	userhandler "github.com/medconnect/booking-api/internal/handler/user"
	vitalhandler "github.com/medconnect/booking-api/internal/handler/vital"
	"github.com/medconnect/booking-api/internal/hub"
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/notifier"
	"github.com/medconnect/booking-api/internal/repository/postgres"
	"github.com/medconnect/booking-api/internal/reservation"
	"github.com/medconnect/booking-api/internal/router"
	appointmentsvc "github.com/medconnect/booking-api/internal/service/appointment"
	authsvc "github.com/medconnect/booking-api/internal/service/auth"
	availabilitysvc "github.com/medconnect/booking-api/internal/service/availability"
	bookingsvc "github.com/medconnect/booking-api/internal/service/booking"
	chatsvc "github.com/medconnect/booking-api/internal/service/chat"
	familysvc "github.com/medconnect/booking-api/internal/service/family"
	"github.com/medconnect/booking-api/internal/service/notification"
	schedulesvc "github.com/medconnect/booking-api/internal/service/schedule"
	usersvc "github.com/medconnect/booking-api/internal/service/user"
	vitalsvc "github.com/medconnect/booking-api/internal/service/vital"
	"github.com/medconnect/booking-api/pkg/logger"
	redismsg "github.com/medconnect/booking-api/pkg/messaging/redis"
	"github.com/medconnect/booking-api/pkg/metrics"
	"github.com/medconnect/booking-api/pkg/security"
	"github.com/medconnect/booking-api/pkg/validator"
)

func main() {
	log := logger.NewLogger(nil).ZL

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	redisClient, err := newRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	m := metrics.New("booking")

	// The broker shares the main Redis pool; the hub relays its channels to
	// connected SSE clients.
	broker := redismsg.NewBrokerWithClient(redisClient, &log)
	slotHub := hub.New(broker, log, m)
	defer slotHub.Close()

	holdStore := reservation.NewStore(redisClient, cfg.Reservation.HoldTTL(), log, m)

	userRepo := postgres.NewUserRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	vitalRepo := postgres.NewVitalRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	familyRepo := postgres.NewFamilyRepository(db)

	var notifySvc notification.Service = notification.NoopService{}
	if cfg.SMTP.Host != "" {
		notifySvc = notification.NewEmailService(cfg.SMTP, log)
	}

	hasher := security.NewBcryptHasher(0)
	v := validator.New()

	authService := authsvc.NewService(userRepo, hasher, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	userService := usersvc.NewService(userRepo)
	scheduleService := schedulesvc.NewService(scheduleRepo, v)
	availabilityService := availabilitysvc.NewService(userRepo, appointmentRepo, scheduleRepo, holdStore)
	bookingService := bookingsvc.NewService(holdStore, appointmentRepo, userRepo, slotHub, notifySvc, log)
	appointmentService := appointmentsvc.NewService(appointmentRepo)
	vitalService := vitalsvc.NewService(vitalRepo, userRepo)
	chatService := chatsvc.NewService(chatRepo)
	familyService := familysvc.NewService(familyRepo, userRepo, bookingService, notifySvc, log)

	handlers := router.Handlers{
		Health:      handler.NewHealthHandler(db, redisClient),
		Auth:        authhandler.NewHandler(authService),
		Slot:        slothandler.NewHandler(availabilityService, bookingService, slotHub, log),
		User:        userhandler.NewHandler(userService),
		Schedule:    schedulehandler.NewHandler(scheduleService),
		Appointment: appointmenthandler.NewHandler(appointmentService),
		Vital:       vitalhandler.NewHandler(vitalService),
		Chat:        chathandler.NewHandler(chatService),
		Family:      familyhandler.NewHandler(familyService),
	}

	authMW := middleware.NewAuthMiddleware(authService)
	engine := router.New(cfg, log, m, authMW, handlers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Notifier.Embedded {
		expiry := notifier.NewExpiryNotifier(redisClient, slotHub, log, m)
		go expiry.Run(ctx)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opts.MaxRetries = cfg.MaxRetries
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
