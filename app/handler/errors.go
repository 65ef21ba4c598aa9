package handler

import (
	"errors"
	"net/http"

	"nodemonitor/internal/service"
	"nodemonitor/pkg/logger"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrNodeNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusUnauthorized},
	{service.ErrInvalidAddress, http.StatusBadRequest},
	{service.ErrWeakPassword, http.StatusBadRequest},
	{service.ErrInvalidLinkCode, http.StatusBadRequest},
	{service.ErrDuplicateNode, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrRefreshInProgress, http.StatusConflict},
	{service.ErrNodeLimit, http.StatusForbidden},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrAccountLocked, http.StatusTooManyRequests},
}

// statusFor maps a service error to an HTTP status, 500 when unknown
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Unexpected errors are logged and their
// detail is not returned.
func respondError(c *gin.Context, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), "failed to %s: %v", action, err)
		c.JSON(status, gin.H{"error": "failed to " + action})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
