package slot

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/medconnect/booking-api/internal/handler"
	"github.com/medconnect/booking-api/internal/hub"
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/service/availability"
	"github.com/medconnect/booking-api/internal/service/booking"
)

// Handler exposes the slot surface: availability queries, the reservation
// protocol (reserve, confirm, cancel), and the live event stream.
type Handler struct {
	availability *availability.Service
	booking      *booking.Service
	hub          *hub.Hub
	logger       zerolog.Logger
}

func NewHandler(availabilitySvc *availability.Service, bookingSvc *booking.Service, h *hub.Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		availability: availabilitySvc,
		booking:      bookingSvc,
		hub:          h,
		logger:       logger.With().Str("handler", "slot").Logger(),
	}
}

// RegisterQueryRoutes mounts the read side: availability and the live stream.
func (h *Handler) RegisterQueryRoutes(r *gin.RouterGroup) {
	r.GET("/slots/available", h.Available)
	r.GET("/slots/events", h.Events)
}

// RegisterBookingRoutes mounts the reservation protocol endpoints.
func (h *Handler) RegisterBookingRoutes(r *gin.RouterGroup) {
	r.POST("/slots/reserve", h.Reserve)
	r.POST("/slots/confirm", h.Confirm)
	r.POST("/slots/cancel", h.Cancel)
}

// Available returns the bookable HH:MM:SS times for a doctor on a date.
func (h *Handler) Available(c *gin.Context) {
	doctorID, err := strconv.ParseInt(c.Query("doctor_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("doctor_id must be an integer"))
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("date must be YYYY-MM-DD"))
		return
	}

	slots, err := h.availability.FreeSlots(c.Request.Context(), doctorID, date)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"doctor_id": doctorID,
		"date":      date.Format("2006-01-02"),
		"slots":     slots,
	}))
}

// Reserve places a time-boxed exclusive hold on a slot for the caller.
func (h *Handler) Reserve(c *gin.Context) {
	req, slotTime, ok := h.bindSlotRequest(c)
	if !ok {
		return
	}

	expiresIn, err := h.booking.Reserve(c.Request.Context(), req.DoctorID, slotTime, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.ReserveSlotResponse{ExpiresIn: expiresIn}))
}

// Confirm turns the caller's active hold into a durable appointment.
func (h *Handler) Confirm(c *gin.Context) {
	req, slotTime, ok := h.bindSlotRequest(c)
	if !ok {
		return
	}

	appointment, err := h.booking.Confirm(c.Request.Context(), req.DoctorID, slotTime, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}

// Cancel releases the caller's active hold before it expires.
func (h *Handler) Cancel(c *gin.Context) {
	req, slotTime, ok := h.bindSlotRequest(c)
	if !ok {
		return
	}

	if err := h.booking.Cancel(c.Request.Context(), req.DoctorID, slotTime, middleware.UserID(c)); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"released": true}))
}

// Events streams live slot state changes for one doctor over SSE. Delivery is
// best-effort; clients refresh availability after any event or reconnect.
func (h *Handler) Events(c *gin.Context) {
	doctorID, err := strconv.ParseInt(c.Query("doctor_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("doctor_id must be an integer"))
		return
	}

	events, cancel, err := h.hub.Subscribe(doctorID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event := <-events:
			c.SSEvent("slot", event)
			return true
		case <-heartbeat.C:
			// Keeps intermediaries from reaping the idle connection.
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}

func (h *Handler) bindSlotRequest(c *gin.Context) (*model.ReserveSlotRequest, time.Time, bool) {
	var req model.ReserveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return nil, time.Time{}, false
	}

	slotTime, err := model.ParseSlotTime(req.SlotTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("slot_time must be YYYY-MM-DDTHH:MM:SS"))
		return nil, time.Time{}, false
	}
	return &req, slotTime, true
}
