// Package http exposes the internal ingest API the message service calls
// synchronously after a successful write.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chathub/internal/hub"
	"chathub/pkg/log"
)

// Handler serves the internal fanout and presence routes.
type Handler struct {
	hub    *hub.Hub
	logger log.Logger

	// serviceToken guards the internal routes. Empty disables the check
	// (local development only).
	serviceToken string
}

// New creates the ingest handler.
func New(h *hub.Hub, logger log.Logger, serviceToken string) *Handler {
	return &Handler{
		hub:          h,
		logger:       logger,
		serviceToken: serviceToken,
	}
}

// SetupRoutes registers the internal routes.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	internal := router.Group("/internal", h.requireServiceToken)
	internal.POST("/fanout", h.fanout)
	internal.GET("/presence/:userID", h.presence)
}

func (h *Handler) requireServiceToken(c *gin.Context) {
	if h.serviceToken == "" {
		c.Next()
		return
	}
	if c.GetHeader("X-Service-Token") != h.serviceToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid service token"})
		return
	}
	c.Next()
}

// fanout accepts a message descriptor and queues it for delivery. The
// write already succeeded upstream, so a delivery failure degrades to
// the client catching up on its next history fetch. Only malformed
// descriptors are hard errors.
func (h *Handler) fanout(c *gin.Context) {
	var desc hub.MessageDescriptor
	if err := c.ShouldBindJSON(&desc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed descriptor"})
		return
	}

	if err := h.hub.Fanout(&desc); err != nil {
		h.logger.Warnf(c.Request.Context(), "fanout rejected for message %s: %v", desc.MessageID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handler) presence(c *gin.Context) {
	userID := c.Param("userID")
	c.JSON(http.StatusOK, gin.H{
		"userId": userID,
		"online": h.hub.Presence().Online(userID),
	})
}
