package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

// NewRouter wires the websocket endpoint and the HTTP room listing.
func NewRouter(hub *Hub, registry *MatchRegistry, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/ws", hub.ServeWS)
	r.GET("/healthz", healthHandler(hub, registry))

	api := r.Group("/api")
	api.GET("/rooms", listRoomsHandler(registry))
	api.GET("/rooms/:code", roomHandler(registry))
	return r
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	l := logger.With().Str("component", "HTTP").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}

func healthHandler(hub *Hub, registry *MatchRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"rooms":    registry.Count(),
			"sessions": hub.SessionCount(),
		})
	}
}

func listRoomsHandler(registry *MatchRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": registry.List()})
	}
}

func roomHandler(registry *MatchRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := registry.Get(c.Param("code"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": core.Reason(core.ErrUnknownRoom)})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"room":    m.Room.Info(),
			"players": m.Room.Snapshot().Players,
		})
	}
}
