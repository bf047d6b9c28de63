package controllers

import (
	"net/http"
	"time"

	"portkeeper/internal/config"
	"portkeeper/internal/health"
	"portkeeper/internal/models"
	"portkeeper/services"

	"github.com/gin-gonic/gin"
)

// HealthController handles relay-server reachability HTTP requests
type HealthController struct {
	checker *health.Checker
}

func NewHealthController(checker *health.Checker) *HealthController {
	return &HealthController{checker: checker}
}

// RegisterRoutes registers all health routes to the Gin engine
func (hc *HealthController) RegisterRoutes(r *gin.Engine) {
	r.GET("/portkeeper/api/v1/health/servers", hc.ProbeServers)
	r.POST("/portkeeper/api/v1/health/select", hc.SelectServer)
	r.GET("/healthz", hc.Healthz)
}

func (hc *HealthController) probeTimeout(req *models.SelectServerRequest) (time.Duration, int) {
	timeout := time.Duration(config.Config.Health.TimeoutSeconds) * time.Second
	retries := config.Config.Health.MaxRetries
	if req != nil {
		if req.TimeoutSeconds > 0 {
			timeout = time.Duration(req.TimeoutSeconds) * time.Second
		}
		if req.MaxRetries > 0 {
			retries = req.MaxRetries
		}
	}
	return timeout, retries
}

// ProbeServers probes the configured relay servers
//
//	@Summary		Probe relay servers
//	@Description	Probe every configured relay server once and report per-server reachability and latency
//	@Tags			Health
//	@Accept			json
//	@Produce		json
//	@Success		200	{array}	models.HealthCheckResult	"Per-server probe results"
//	@Router			/portkeeper/api/v1/health/servers [get]
func (hc *HealthController) ProbeServers(c *gin.Context) {
	timeout, _ := hc.probeTimeout(nil)
	results := hc.checker.ProbeAll(config.Config.Health.DefaultServers, timeout)
	c.JSON(http.StatusOK, results)
}

// SelectServer picks the first reachable relay server from a list
//
//	@Summary		Select relay server
//	@Description	Probe the candidate servers in priority order with retries and return the first reachable one
//	@Tags			Health
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.SelectServerRequest	true	"Candidate servers and probe tuning"
//	@Success		200		{object}	models.SelectServerResponse	"Selection result; found=false when no server answered"
//	@Failure		400		{object}	models.ErrorResponse		"Invalid parameter error response"
//	@Router			/portkeeper/api/v1/health/select [post]
func (hc *HealthController) SelectServer(c *gin.Context) {
	var req models.SelectServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{
			Error: "Invalid request parameters",
		})
		return
	}

	timeout, retries := hc.probeTimeout(&req)
	server, found := hc.checker.SelectFirstAvailable(req.Servers, timeout, retries)
	c.JSON(http.StatusOK, &models.SelectServerResponse{
		Server: server,
		Found:  found,
	})
}

// Healthz is the liveness probe for the keeper itself
//
//	@Summary		Liveness probe
//	@Description	Report that the keeper process is up
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/healthz [get]
func (hc *HealthController) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"totalRequests": services.GetTotalRequestCount(),
		"errorRequests": services.GetTotalErrorCount(),
	})
}
