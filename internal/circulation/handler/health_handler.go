package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything whose liveness the health check should report.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers 200 when every dependency responds, 503 otherwise.
func Health(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(gin.H, len(deps))
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}

		c.JSON(status, gin.H{"success": status == http.StatusOK, "checks": checks})
	}
}
