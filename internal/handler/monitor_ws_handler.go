package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/response"
	ws "github.com/invigo/invigo-backend/internal/websocket"
)

const monitorKeepAlive = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
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

// MonitorWSHandler streams live violation events of one session to admins.
type MonitorWSHandler struct {
	rdb      *redis.Client
	sessions *repository.SessionRepository
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorWSHandler creates a new MonitorWSHandler.
func NewMonitorWSHandler(rdb *redis.Client, sessions *repository.SessionRepository, log zerolog.Logger, allowedOrigins []string) *MonitorWSHandler {
	return &MonitorWSHandler{
		rdb:      rdb,
		sessions: sessions,
		log:      log.With().Str("component", "monitor_ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionMonitorStream godoc
// WS /ws/v1/admin/sessions/:session_id/monitor
// Upgrades to WebSocket and forwards the session's violation events as they
// arrive, so proctors see integrity incidents in real time.
func (h *MonitorWSHandler) SessionMonitorStream(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	if _, err := h.sessions.GetByID(c.Request.Context(), sessionID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	reqCtx := c.Request.Context()
	channel := config.CacheKey.SessionMonitorChannel(sessionID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channel)
	defer pubsub.Close()

	msgs := pubsub.Channel()

	keepAlive := time.NewTicker(monitorKeepAlive)
	defer keepAlive.Stop()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Admin attached to session monitor")

	// Drain client frames so pings and close frames are processed; the
	// stream itself is one-directional.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-reqCtx.Done():
			wsLog.Info().Msg("Admin detached from session monitor")
			return

		case msg, open := <-msgs:
			if !open {
				return
			}
			// Events arrive pre-encoded from the violation queue.
			if err := ws.WriteRaw(conn, []byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed, closing")
				return
			}

		case <-keepAlive.C:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		}
	}
}
