package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"portkeeper/internal/models"
	"portkeeper/services"

	"github.com/gin-gonic/gin"
)

// TunnelService is the manager surface the controller needs.
type TunnelService interface {
	Start(instanceID string, cfg *models.TunnelConfig) error
	Stop(instanceID string) error
	Status(instanceID string) models.TunnelStatus
	IsRunning(instanceID string) bool
	List() []models.StatusResponse
}

// TunnelController handles tunnel lifecycle HTTP requests
type TunnelController struct {
	manager TunnelService
	store   services.ConfigStore
}

// NewTunnelController creates a new TunnelController bound to the shared
// tunnel manager and config store
func NewTunnelController(manager TunnelService, store services.ConfigStore) *TunnelController {
	return &TunnelController{
		manager: manager,
		store:   store,
	}
}

// RegisterRoutes registers all tunnel routes to the Gin engine
func (tc *TunnelController) RegisterRoutes(r *gin.Engine) {
	r.POST("/portkeeper/api/v1/tunnels", tc.StartTunnel)
	r.DELETE("/portkeeper/api/v1/tunnels/:instance", tc.StopTunnel)
	r.GET("/portkeeper/api/v1/tunnels", tc.ListTunnels)
	r.GET("/portkeeper/api/v1/tunnels/:instance/status", tc.GetTunnelStatus)
	r.GET("/portkeeper/api/v1/tunnels/:instance/running", tc.GetTunnelRunning)
}

// StartTunnel starts a tunnel for a server instance
//
//	@Summary		Start tunnel
//	@Description	Start a tunnel agent exposing the instance's local port
//	@Tags			Tunnels
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.StartTunnelRequest	true	"Start tunnel request parameters"
//	@Success		200		{object}	models.TunnelResponse		"Tunnel start success response"
//	@Failure		400		{object}	models.ErrorResponse		"Invalid parameter error response"
//	@Failure		409		{object}	models.ErrorResponse		"Tunnel already running error response"
//	@Failure		500		{object}	models.ErrorResponse		"Tunnel start failure error response"
//	@Router			/portkeeper/api/v1/tunnels [post]
func (tc *TunnelController) StartTunnel(c *gin.Context) {
	var req models.StartTunnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{
			Error: "Invalid request parameters",
		})
		return
	}

	cfg := req.Config
	if cfg.Provider == "" {
		if stored, err := tc.store.Get(req.InstanceID); err == nil {
			cfg = *stored
		} else {
			c.JSON(http.StatusBadRequest, &models.ErrorResponse{
				Error: "No tunnel config supplied or stored for instance " + req.InstanceID,
			})
			return
		}
	}

	if err := tc.manager.Start(req.InstanceID, &cfg); err != nil {
		status := http.StatusInternalServerError
		var authErr *models.AuthRequiredError
		switch {
		case errors.Is(err, models.ErrAlreadyRunning):
			status = http.StatusConflict
		case errors.As(err, &authErr):
			status = http.StatusBadRequest
		}
		c.JSON(status, &models.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	cfg.InstanceID = req.InstanceID
	if err := tc.store.Save(&cfg); err != nil {
		// The tunnel is up; a persistence hiccup is not fatal.
		c.JSON(http.StatusOK, &models.TunnelResponse{
			InstanceID: req.InstanceID,
			Status:     "success",
			Message:    fmt.Sprintf("Tunnel started for instance %s (config not persisted: %v)", req.InstanceID, err),
		})
		return
	}

	c.JSON(http.StatusOK, &models.TunnelResponse{
		InstanceID: req.InstanceID,
		Status:     "success",
		Message:    fmt.Sprintf("Tunnel started for instance %s", req.InstanceID),
	})
}

// StopTunnel stops the tunnel of a server instance
//
//	@Summary		Stop tunnel
//	@Description	Stop the tunnel agent for the specified instance
//	@Tags			Tunnels
//	@Accept			json
//	@Produce		json
//	@Param			instance	path		string					true	"Instance identifier"
//	@Success		200			{object}	models.TunnelResponse	"Tunnel stop success response"
//	@Failure		404			{object}	models.ErrorResponse	"Tunnel not running error response"
//	@Failure		500			{object}	models.ErrorResponse	"Tunnel stop failure error response"
//	@Router			/portkeeper/api/v1/tunnels/{instance} [delete]
func (tc *TunnelController) StopTunnel(c *gin.Context) {
	instanceID := c.Param("instance")

	if err := tc.manager.Stop(instanceID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrNotRunning) {
			status = http.StatusNotFound
		}
		c.JSON(status, &models.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, &models.TunnelResponse{
		InstanceID: instanceID,
		Status:     "success",
		Message:    fmt.Sprintf("Tunnel stopped for instance %s", instanceID),
	})
}

// ListTunnels lists status of all registered tunnels
//
//	@Summary		List tunnels
//	@Description	Get status snapshots of all registered tunnels
//	@Tags			Tunnels
//	@Accept			json
//	@Produce		json
//	@Success		200	{array}	models.StatusResponse	"Tunnel list response"
//	@Router			/portkeeper/api/v1/tunnels [get]
func (tc *TunnelController) ListTunnels(c *gin.Context) {
	c.JSON(http.StatusOK, tc.manager.List())
}

// GetTunnelStatus gets the status of a specific tunnel
//
//	@Summary		Get tunnel status
//	@Description	Get the status snapshot for the specified instance; unknown instances report disconnected
//	@Tags			Tunnels
//	@Accept			json
//	@Produce		json
//	@Param			instance	path		string					true	"Instance identifier"
//	@Success		200			{object}	models.StatusResponse	"Tunnel status response"
//	@Router			/portkeeper/api/v1/tunnels/{instance}/status [get]
func (tc *TunnelController) GetTunnelStatus(c *gin.Context) {
	instanceID := c.Param("instance")
	c.JSON(http.StatusOK, &models.StatusResponse{
		InstanceID: instanceID,
		Status:     tc.manager.Status(instanceID),
	})
}

// GetTunnelRunning reports whether a tunnel is registered for an instance
//
//	@Summary		Check running
//	@Description	Report whether a tunnel is registered for the specified instance
//	@Tags			Tunnels
//	@Accept			json
//	@Produce		json
//	@Param			instance	path		string					true	"Instance identifier"
//	@Success		200			{object}	models.RunningResponse	"Running flag response"
//	@Router			/portkeeper/api/v1/tunnels/{instance}/running [get]
func (tc *TunnelController) GetTunnelRunning(c *gin.Context) {
	instanceID := c.Param("instance")
	c.JSON(http.StatusOK, &models.RunningResponse{
		InstanceID: instanceID,
		Running:    tc.manager.IsRunning(instanceID),
	})
}
