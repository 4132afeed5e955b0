package vital

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medconnect/booking-api/internal/handler"
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/service/vital"
)

type Handler struct {
	service *vital.Service
}

func NewHandler(service *vital.Service) *Handler {
	return &Handler{service: service}
}

// RegisterDoctorRoutes mounts the doctor-only recording endpoint.
func (h *Handler) RegisterDoctorRoutes(r *gin.RouterGroup) {
	r.POST("/vitals", h.Record)
}

// RegisterPatientRoutes mounts the patient's own-readings endpoint.
func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	r.GET("/vitals", h.ListOwn)
}

func (h *Handler) Record(c *gin.Context) {
	var req model.CreateVitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	recorded, err := h.service.Record(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(recorded))
}

func (h *Handler) ListOwn(c *gin.Context) {
	vitals, err := h.service.ListOwn(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(vitals))
}
