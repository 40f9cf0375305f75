package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/middleware"
	"github.com/rtdacademy/connect-backend/internal/model"
	"github.com/rtdacademy/connect-backend/internal/response"
	ws "github.com/rtdacademy/connect-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live exam progress to staff over WebSocket.
type MonitorHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// CourseMonitorStream godoc
// WS /ws/v1/staff/courses/:course_id/monitor
// Upgrades to WebSocket and relays the course's exam monitor events:
// sessions starting, answers being saved, sessions completing.
func (h *MonitorHandler) CourseMonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	hasPerm := false
	for _, p := range claims.Permissions {
		if p == string(model.PermissionExamsMonitor) {
			hasPerm = true
			break
		}
	}
	if !hasPerm {
		response.Fail(c, http.StatusForbidden, response.ErrPermissionDenied)
		return
	}

	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	channel := config.CacheKey.ExamMonitorChannel(courseID)
	pubsub := h.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	h.log.Info().Int("course_id", courseID).Int("staff_id", claims.UserID).Msg("Staff attached to exam monitor")

	// Read loop: forwards pings to the write loop and detects disconnects.
	// All writes happen on the select loop below so the connection is never
	// written from two goroutines.
	pings := make(chan struct{}, 1)
	go func() {
		defer cancel()
		for {
			var envelope ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &envelope); err != nil {
				return
			}
			if envelope.Action == ws.ActionPing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.log.Info().Int("course_id", courseID).Msg("Staff detached from exam monitor")
			return

		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}

		case msg, ok := <-ch:
			if !ok {
				return
			}
			frame := ws.MonitorFrame{
				Event: ws.EventMonitor,
				Data:  json.RawMessage(msg.Payload),
			}
			if err := ws.WriteTyped(conn, frame); err != nil {
				h.log.Warn().Err(err).Int("course_id", courseID).Msg("monitor write failed")
				return
			}
		}
	}
}
