package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	RespondMessage(c, status, code, msg)
}

func RespondMessage(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// StatusFor maps a service error code onto an HTTP status.
func StatusFor(code errs.Code) int {
	switch code {
	case errs.CodeValidation:
		return http.StatusBadRequest
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeForbidden:
		return http.StatusForbidden
	case errs.CodeConflict:
		return http.StatusConflict
	case errs.CodeUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError writes the caller-safe part of err. Causes stay in
// the logs and uncoded errors become a generic 500.
func RespondServiceError(c *gin.Context, err error) {
	code := errs.CodeOf(err)
	if code == "" {
		code = errs.CodeInternal
	}
	msg := errs.MessageOf(err)
	if msg == "" {
		msg = "Internal server error."
	}
	RespondMessage(c, StatusFor(code), string(code), msg)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
