package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/llm"
	"github.com/heymaaz/t3.chat.cloneathon/internal/interfaces/httpserver/responses"
)

// ModelHandler serves the supported model registry.
type ModelHandler struct{}

// NewModelHandler constructs the handler.
func NewModelHandler() *ModelHandler {
	return &ModelHandler{}
}

// List handles GET /v1/models
// @Summary List selectable models with capability flags
// @Tags Models
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/models [get]
func (h *ModelHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":  responses.ModelsFromDomain(llm.SupportedModels()),
		"default": llm.DefaultModelID,
	})
}
