package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spimforce/campaign-sender/docs"
	"github.com/spimforce/campaign-sender/pkg/metrics"
)

func NewHTTPServer(addr string, h *Handlers) *http.Server {
	r := gin.New()
	r.Use(gin.Recovery(), Observability())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/campaigns", h.ListCampaigns)
	r.GET("/campaigns/:id", h.GetCampaign)
	r.POST("/send/force", h.ForceSend)
	r.GET("/scheduler", h.SchedulerStatus)

	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", docs.AdminSwaggerHTML)
	})
	r.GET("/docs/admin-api/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", docs.AdminOpenAPI)
	})

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}
