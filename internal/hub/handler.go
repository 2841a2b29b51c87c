package hub

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chathub/pkg/jwt"
	"chathub/pkg/log"
)

// Handler upgrades authenticated HTTP requests to websocket sessions and
// hands them to the hub.
type Handler struct {
	hub          *Hub
	jwtValidator *jwt.Validator
	logger       log.Logger

	timings    ConnTimings
	sendBuffer int
	upgrader   websocket.Upgrader
}

// HandlerConfig holds transport configuration for new connections.
type HandlerConfig struct {
	Timings         ConnTimings
	SendBufferSize  int
	ReadBufferSize  int
	WriteBufferSize int
}

// NewHandler creates a websocket handler.
func NewHandler(h *Hub, jwtValidator *jwt.Validator, logger log.Logger, cfg HandlerConfig) *Handler {
	return &Handler{
		hub:          h,
		jwtValidator: jwtValidator,
		logger:       logger,
		timings:      cfg.Timings,
		sendBuffer:   cfg.SendBufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Browsers send the app origin; cross-origin policy is
			// enforced at the gateway in front of this service.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket authenticates the handshake, upgrades the transport
// and registers the session.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	ctx := context.Background()

	token := c.Query("token")
	if token == "" {
		h.logger.Warn(ctx, "connection rejected: missing token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error()})
		return
	}

	userID, err := h.jwtValidator.ExtractUserID(token)
	if err != nil {
		h.logger.Warnf(ctx, "connection rejected: invalid token: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
		return
	}

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Errorf(ctx, "upgrade failed for user %s: %v", userID, err)
		return
	}

	connID := uuid.New().String()
	conn := NewConnection(h.hub, wsConn, connID, userID, h.timings, h.sendBuffer, h.logger)

	if err := h.hub.Register(conn); err != nil {
		h.logger.Warnf(ctx, "register rejected for user %s: %v", userID, err)
		wsConn.Close()
		return
	}

	conn.Start()

	h.logger.Infof(ctx, "websocket session established: user %s conn %s", userID, connID)
}

// SetupRoutes registers the websocket endpoint.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", h.HandleWebSocket)
}
