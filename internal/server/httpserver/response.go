package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/gin-gonic/gin"
)

// envelope is the body of every response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func statusFor(k common.Kind) int {
	switch k {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case common.KindAuthentication:
		return http.StatusUnauthorized
	case common.KindAuthorization:
		return http.StatusForbidden
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	case common.KindLocked:
		return http.StatusLocked
	case common.KindRateLimited:
		return http.StatusTooManyRequests
	case common.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func writeMessage(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

// writeError renders err and aborts the chain. Anything that is not an
// *common.AppError becomes a 500 with the generic message.
func (s *Server) writeError(c *gin.Context, err error) {
	appErr := common.AsAppError(err)
	if appErr.Kind == common.KindInternal {
		var inner *common.AppError
		if !errors.As(err, &inner) {
			s.logger.Error(c.Request.Context(), "[HTTP_UNHANDLED_ERROR]", "path", c.FullPath(), "error", err.Error())
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Error: common.InternalErrorMessage})
		return
	}
	c.AbortWithStatusJSON(statusFor(appErr.Kind), envelope{Error: appErr.Message, Details: appErr.Details})
}

func (s *Server) fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, envelope{Error: msg})
}
