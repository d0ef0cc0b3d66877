package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nse-dashboard/internal/api"
	"nse-dashboard/internal/download"
	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/logger"
	"nse-dashboard/internal/selection"
	"nse-dashboard/internal/tradingday"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// fail maps err to a status code and writes the error envelope.
func fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithErr(c.Request.Context(), "Request failed", err,
			"method", c.Request.Method,
			"path", c.FullPath(),
		)
	}
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func statusFor(err error) (int, string) {
	var (
		pe *tradingday.ParseError
		ve *selection.ValidationError
		he *api.HTTPError
	)
	switch {
	case errors.Is(err, interfaces.ErrBadResponse):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message()
	case errors.As(err, &pe):
		return http.StatusBadRequest, pe.Error()
	case errors.Is(err, download.ErrNoDates):
		return http.StatusBadRequest, "Please select at least one date."
	case errors.Is(err, download.ErrBusy):
		return http.StatusConflict, err.Error()
	case errors.As(err, &he):
		return http.StatusBadGateway, he.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
