package appointment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medconnect/booking-api/internal/handler"
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/service/appointment"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPatientRoutes mounts the patient-facing appointment endpoints.
func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	r.GET("/appointments", h.ListMine)
	r.POST("/appointments/:id/cancel", h.Cancel)
	r.POST("/appointments/:id/reschedule", h.Reschedule)
}

// RegisterDoctorRoutes mounts the doctor-facing appointment endpoints.
func (h *Handler) RegisterDoctorRoutes(r *gin.RouterGroup) {
	r.GET("/doctors/me/appointments", h.ListForDoctor)
	r.PUT("/appointments/:id/respond", h.Respond)
}

func (h *Handler) ListMine(c *gin.Context) {
	details, err := h.service.ListForPatient(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(details))
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	appointments, err := h.service.ListForDoctor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) Respond(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.AppointmentResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.Respond(c.Request.Context(), middleware.UserID(c), id, req.Action)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	updated, err := h.service.Cancel(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.Reschedule(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("id must be an integer"))
		return 0, false
	}
	return id, true
}
