package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chathub/internal/hub"
)

// MetricsResponse represents the metrics response.
type MetricsResponse struct {
	Service     string             `json:"service"`
	Timestamp   time.Time          `json:"timestamp"`
	Uptime      int64              `json:"uptime_seconds"`
	Connections *ConnectionMetrics `json:"connections"`
	Messages    *MessageMetrics    `json:"messages"`
}

// ConnectionMetrics represents connection-related metrics.
type ConnectionMetrics struct {
	Active      int `json:"active"`
	OnlineUsers int `json:"online_users"`
	ActiveRooms int `json:"active_rooms"`
}

// MessageMetrics represents delivery-related metrics.
type MessageMetrics struct {
	FanoutsReceived int64 `json:"fanouts_received"`
	PayloadsSent    int64 `json:"payloads_sent"`
	PayloadsFailed  int64 `json:"payloads_failed"`
}

func metricsHandler(c *gin.Context, h *hub.Hub) {
	stats := h.GetStats()

	response := MetricsResponse{
		Service:   "chathub",
		Timestamp: time.Now(),
		Uptime:    int64(time.Since(startTime).Seconds()),
		Connections: &ConnectionMetrics{
			Active:      stats.ActiveConnections,
			OnlineUsers: stats.OnlineUsers,
			ActiveRooms: stats.ActiveRooms,
		},
		Messages: &MessageMetrics{
			FanoutsReceived: stats.FanoutsReceived,
			PayloadsSent:    stats.PayloadsSent,
			PayloadsFailed:  stats.PayloadsFailed,
		},
	}

	c.JSON(http.StatusOK, response)
}
