package family

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medconnect/booking-api/internal/handler"
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/service/family"
)

type Handler struct {
	service *family.Service
}

func NewHandler(service *family.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPatientRoutes mounts the patient side of the care circle: inviting
// members, listing connections, granting permissions.
func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	r.POST("/family/invite", h.Invite)
	r.GET("/family/connections", h.ListConnections)
	r.PUT("/family/permissions", h.SetPermissions)
}

// RegisterMemberRoutes mounts the family-member side: answering invitations
// and booking on a patient's behalf.
func (h *Handler) RegisterMemberRoutes(r *gin.RouterGroup) {
	r.POST("/family/invitations/:token/respond", h.Respond)
	r.POST("/family/book", h.Book)
}

func (h *Handler) Invite(c *gin.Context) {
	var req model.InviteFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	inv, err := h.service.Invite(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(inv))
}

func (h *Handler) Respond(c *gin.Context) {
	var req model.RespondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	inv, err := h.service.Respond(c.Request.Context(), middleware.UserID(c), c.Param("token"), req.Accept)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(inv))
}

func (h *Handler) ListConnections(c *gin.Context) {
	conns, err := h.service.ListConnections(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(conns))
}

func (h *Handler) SetPermissions(c *gin.Context) {
	var req model.SetFamilyPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	perm, err := h.service.SetPermissions(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(perm))
}

// Book books a slot for a connected patient; the hold is transient and the
// appointment lands on the patient's record.
func (h *Handler) Book(c *gin.Context) {
	var req model.FamilyBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointment, err := h.service.BookForPatient(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}
