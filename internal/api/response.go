package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes the error envelope for err. Errors without a kind are
// logged and reported as a generic internal error.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	status := apperr.HTTPStatus(err)
	code := string(apperr.KindOf(err))
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
