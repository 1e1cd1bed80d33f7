package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"brigade_tracker/internal/events"
	"brigade_tracker/internal/middleware"
)

// EventsController streams lifecycle events to websocket subscribers.
type EventsController struct {
	hub      *events.Hub
	idp      middleware.IdentityProvider
	upgrader websocket.Upgrader
}

// NewEventsController admits browser connections from allowedOrigin only; an
// empty origin admits any.
func NewEventsController(hub *events.Hub, idp middleware.IdentityProvider, allowedOrigin string) *EventsController {
	return &EventsController{
		hub: hub,
		idp: idp,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// parseTopics reads a comma separated topic list. Empty means every topic.
func parseTopics(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return events.Topics, nil
	}
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		known := false
		for _, k := range events.Topics {
			if t == k {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown topic %q", t)
		}
		out = append(out, t)
	}
	return out, nil
}

// HandleEventsWebSocket authenticates with ?token= (browsers cannot set
// headers on websocket requests) and subscribes to ?topics=.
func (ec *EventsController) HandleEventsWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		logrus.Warn("WebSocket connection attempt: Missing token query parameter.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}
	principal, err := ec.idp.Authenticate(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	topics, err := parseTopics(c.Query("topics"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := ec.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}

	ec.hub.Register(conn, topics...)
	defer ec.hub.Unregister(conn)

	logrus.WithFields(logrus.Fields{
		"principal": principal.ID,
		"role":      principal.Role,
		"topics":    topics,
	}).Info("Event subscriber connected.")

	// The stream is one-way; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("principal", principal.ID).Info("Event subscriber closed the connection.")
			} else {
				logrus.WithError(err).WithField("principal", principal.ID).Warn("Event subscriber read failed.")
			}
			return
		}
	}
}
