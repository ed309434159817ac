package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/devhub_api/internal/service"
	"github.com/GTDGit/devhub_api/internal/utils"
)

// ProductHandler handles product assignment and status endpoints.
type ProductHandler struct {
	assignments *service.AssignmentService
	status      *service.StatusService
	catalog     *service.CatalogService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(assignments *service.AssignmentService, status *service.StatusService, catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{assignments: assignments, status: status, catalog: catalog}
}

// AssignDeveloperRequest is the body of POST /api/products/:id/assign-developer.
type AssignDeveloperRequest struct {
	DeveloperID string `json:"developerId"`
	Role        string `json:"role"`
}

// GetProduct handles GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	view, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, 200, "Product retrieved successfully", view)
}

// AssignDeveloper handles POST /api/products/:id/assign-developer
func (h *ProductHandler) AssignDeveloper(c *gin.Context) {
	var req AssignDeveloperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), req.DeveloperID, req.Role)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessWithWarnings(c, 200, "Developer assigned successfully", result.Product, result.Warnings)
}

// RemoveDeveloper handles DELETE /api/products/:id/remove-developer/:developerId
func (h *ProductHandler) RemoveDeveloper(c *gin.Context) {
	result, err := h.assignments.Unassign(c.Request.Context(), c.Param("id"), c.Param("developerId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessWithWarnings(c, 200, "Developer removed successfully", result.Product, result.Warnings)
}

// UpdateStatus handles PATCH /api/products/:id/status
func (h *ProductHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	view, err := h.status.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, 200, "Product status updated successfully", view)
}
