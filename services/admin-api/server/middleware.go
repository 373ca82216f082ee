package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/metrics"
)

// quietPaths are polled by probes and scrapers; they are counted in the
// metrics but kept out of the access log.
var quietPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

// Observability tags every request with an id, records per-route metrics and
// writes one access log line per request.
func Observability() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.Request.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Set("request_id", rid)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.APIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		if _, quiet := quietPaths[route]; quiet && status < http.StatusInternalServerError {
			return
		}
		logx.L().Infow("http_access",
			"rid", rid,
			"method", c.Request.Method,
			"path", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
