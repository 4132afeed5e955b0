package schedule

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medconnect/booking-api/internal/handler"
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/service/schedule"
)

type Handler struct {
	service *schedule.Service
}

func NewHandler(service *schedule.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the doctor-only schedule endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.PUT("/doctors/me/schedule", h.Set)
	r.GET("/doctors/me/schedule", h.Get)
}

// Set replaces the caller's full weekly schedule.
func (h *Handler) Set(c *gin.Context) {
	var req model.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	windows, err := h.service.SetWeeklySchedule(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(windows))
}

func (h *Handler) Get(c *gin.Context) {
	windows, err := h.service.GetWeeklySchedule(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(windows))
}
