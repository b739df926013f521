package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Controller handles general HTTP requests.
type Controller struct {
	db Pinger
}

// New creates a new Controller. db may be nil, in which case Ping only reports liveness.
func New(db Pinger) *Controller {
	return &Controller{db: db}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	if con.db != nil {
		if err := con.db.PingContext(c.Request.Context()); err != nil {
			slog.Error("Health check failed", slog.Any("err", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}
