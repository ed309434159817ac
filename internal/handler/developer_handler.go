package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/devhub_api/internal/service"
	"github.com/GTDGit/devhub_api/internal/utils"
)

// DeveloperHandler serves developer reads.
type DeveloperHandler struct {
	catalog *service.CatalogService
}

func NewDeveloperHandler(catalog *service.CatalogService) *DeveloperHandler {
	return &DeveloperHandler{catalog: catalog}
}

// GetDeveloper handles GET /api/developers/:id
func (h *DeveloperHandler) GetDeveloper(c *gin.Context) {
	dev, err := h.catalog.GetDeveloper(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, 200, "Developer retrieved successfully", dev)
}

// GetDeveloperProducts handles GET /api/developers/:id/products
func (h *DeveloperHandler) GetDeveloperProducts(c *gin.Context) {
	products, err := h.catalog.DeveloperProducts(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, 200, "Developer products retrieved successfully", products)
}
