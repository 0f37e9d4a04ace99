package system

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	registryroute "github.com/nikkibisarya/CodeU-Summer-2017/internal/registry/route"
)

var ready atomic.Bool

// MarkReady signals that replay has finished and requests may be served.
func MarkReady() {
	ready.Store(true)
}

// MarkNotReady reverts MarkReady, used while shutting down.
func MarkNotReady() {
	ready.Store(false)
}

func init() {
	registryroute.Register(registryroute.Plugin{
		Order: 0,
		Loader: func(r *gin.Engine) error {
			r.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			r.GET("/ready", func(c *gin.Context) {
				if ready.Load() {
					c.JSON(http.StatusOK, gin.H{"status": "ready"})
				} else {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
				}
			})

			r.GET("/metrics", gin.WrapH(promhttp.Handler()))
			return nil
		},
	})
}

// Info describes the running server instance.
type Info struct {
	Version   string
	ServerID  uuid.UUID
	StartedAt time.Time
}

// MountRoutes mounts the server-info route.
func MountRoutes(r *gin.Engine, info Info) {
	r.GET("/v1/server-info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":   info.Version,
			"serverId":  info.ServerID,
			"startedAt": info.StartedAt,
			"uptime":    time.Since(info.StartedAt).Round(time.Second).String(),
		})
	})
}
