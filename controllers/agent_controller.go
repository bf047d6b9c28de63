package controllers

import (
	"net/http"

	"portkeeper/internal/agent"
	"portkeeper/internal/config"
	"portkeeper/internal/models"

	"github.com/gin-gonic/gin"
)

// AgentController exposes read-only inspection of the installed tunnel
// agent binaries
type AgentController struct{}

func NewAgentController() *AgentController {
	return &AgentController{}
}

// RegisterRoutes registers all agent routes to the Gin engine
func (ac *AgentController) RegisterRoutes(r *gin.Engine) {
	r.GET("/portkeeper/api/v1/agents", ac.ListAgents)
	r.GET("/portkeeper/api/v1/agents/:provider", ac.GetAgent)
}

// ListAgents lists installation state of all provider agents
//
//	@Summary		List agents
//	@Description	Report the install path and version of every provider's agent binary
//	@Tags			Agents
//	@Produce		json
//	@Success		200	{array}	models.AgentInfo	"Agent inventory response"
//	@Router			/portkeeper/api/v1/agents [get]
func (ac *AgentController) ListAgents(c *gin.Context) {
	c.JSON(http.StatusOK, agent.InspectAll(config.Config.Agents.Dir))
}

// GetAgent inspects a single provider's agent binary
//
//	@Summary		Get agent info
//	@Description	Report the install path and version for one provider's agent binary
//	@Tags			Agents
//	@Produce		json
//	@Param			provider	path		string					true	"Provider name (bore, cloudflare, ngrok, playit)"
//	@Success		200			{object}	models.AgentInfo		"Agent info response"
//	@Failure		400			{object}	models.ErrorResponse	"Unknown provider error response"
//	@Router			/portkeeper/api/v1/agents/{provider} [get]
func (ac *AgentController) GetAgent(c *gin.Context) {
	p, err := models.ParseProviderType(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &models.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, agent.Inspect(config.Config.Agents.Dir, p))
}
