package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/readzone/readzone-server/internal/auth"
	"github.com/readzone/readzone-server/internal/notifications"
	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into authenticated WebSocket
// streams delivering notification events as they happen.
type RealtimeHandler struct {
	hub *notifications.Hub
	jwt *iauth.JWTService
}

func NewRealtimeHandler(hub *notifications.Hub, jwt *iauth.JWTService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, jwt: jwt}
}

// Stream validates the caller and subscribes them to their notification feed.
// Browsers cannot set headers on WebSocket upgrades, so the token is also
// accepted as a query parameter.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}
	if token == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	h.hub.Serve(claims.UserID, c.Writer, c.Request)
}
