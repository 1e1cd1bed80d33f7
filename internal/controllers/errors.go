package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"brigade_tracker/internal/apperr"
)

// respondError writes err as {"error": msg} with the status its kind maps to.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("respondError: request failed")
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// badRequest reports a binding failure.
func badRequest(c *gin.Context, what string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + ": " + err.Error()})
}

// idParam reads a path id. Routes guard their ids with middleware.ValidateUUID.
func idParam(c *gin.Context, name string) uuid.UUID {
	id, _ := uuid.Parse(c.Param(name))
	return id
}
