package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medconnect/booking-api/internal/handler"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/service/auth"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public authentication endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/register/patient", h.register(model.RolePatient))
	r.POST("/auth/register/doctor", h.register(model.RoleDoctor))
	r.POST("/auth/register/family", h.register(model.RoleFamily))
	r.POST("/auth/login", h.Login)
}

func (h *Handler) register(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.RegisterUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}

		user, err := h.service.Register(c.Request.Context(), &req, role)
		if err != nil {
			handler.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(token))
}
