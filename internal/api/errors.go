package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"poker-rooms/engine"
)

// statusFor maps engine error classes onto HTTP statuses.
func statusFor(err error) int {
	if errors.Is(err, engine.ErrWrongPassword) {
		return http.StatusForbidden
	}
	switch engine.ClassOf(err) {
	case engine.ValidationError:
		return http.StatusBadRequest
	case engine.RuleViolation, engine.CapacityError:
		return http.StatusConflict
	case engine.NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "hand aborted, the host has to restart it"
		if engine.ClassOf(err) != engine.ResourceError {
			msg = "server error"
		}
	}
	c.JSON(status, gin.H{"error": msg, "code": engine.CodeOf(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": engine.ErrInvalidAction.Code})
}
