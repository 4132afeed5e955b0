package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medconnect/booking-api/internal/handler"
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/service/chat"
)

type Handler struct {
	service *chat.Service
}

func NewHandler(service *chat.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chats", h.CreateRoom)
	r.GET("/chats", h.ListRooms)
	r.POST("/chats/:id/messages", h.SendMessage)
	r.GET("/chats/:id/messages", h.ListMessages)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req model.CreateChatRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(room))
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rooms))
}

func (h *Handler) SendMessage(c *gin.Context) {
	chatID, ok := pathID(c)
	if !ok {
		return
	}
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), chatID, middleware.UserID(c), req.Content)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(msg))
}

func (h *Handler) ListMessages(c *gin.Context) {
	chatID, ok := pathID(c)
	if !ok {
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), chatID, middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(messages))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("id must be an integer"))
		return 0, false
	}
	return id, true
}
