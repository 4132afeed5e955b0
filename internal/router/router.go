package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

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
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/pkg/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *authhandler.Handler
	Slot        *slothandler.Handler
	User        *userhandler.Handler
	Schedule    *schedulehandler.Handler
	Appointment *appointmenthandler.Handler
	Vital       *vitalhandler.Handler
	Chat        *chathandler.Handler
	Family      *familyhandler.Handler
}

// New assembles the gin engine: middleware stack, operational endpoints, and
// the versioned API grouped by role.
func New(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics, authMW *middleware.AuthMiddleware, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorLogger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	rl := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	r.Use(rl.RateLimit())

	r.GET("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1", middleware.NoStore())
	h.Auth.RegisterRoutes(api)

	authed := api.Group("", authMW.Authenticate())
	h.Slot.RegisterQueryRoutes(authed)
	h.User.RegisterRoutes(authed)
	h.Chat.RegisterRoutes(authed)

	patient := authed.Group("", authMW.RequireRole(model.RolePatient))
	h.Slot.RegisterBookingRoutes(patient)
	h.Appointment.RegisterPatientRoutes(patient)
	h.Vital.RegisterPatientRoutes(patient)
	h.Family.RegisterPatientRoutes(patient)

	doctor := authed.Group("", authMW.RequireRole(model.RoleDoctor))
	h.Schedule.RegisterRoutes(doctor)
	h.Appointment.RegisterDoctorRoutes(doctor)
	h.Vital.RegisterDoctorRoutes(doctor)

	member := authed.Group("", authMW.RequireRole(model.RoleFamily))
	h.Family.RegisterMemberRoutes(member)

	return r
}
