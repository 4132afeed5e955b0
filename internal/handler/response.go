package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

// Response is the uniform envelope for every JSON reply.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) Response {
	return Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) Response {
	return Response{
		Status:  "error",
		Message: message,
	}
}

// Error terminates the request with the status carried by the error. Unknown
// errors become opaque 500s; their detail stays in the logs, not the reply.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		c.AbortWithStatusJSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}
