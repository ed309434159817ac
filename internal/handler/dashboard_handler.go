package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/devhub_api/internal/service"
	"github.com/GTDGit/devhub_api/internal/utils"
)

// DashboardHandler serves reporting and maintenance endpoints.
type DashboardHandler struct {
	dashboard  *service.DashboardService
	reconciler *service.ReconcileService
}

func NewDashboardHandler(dashboard *service.DashboardService, reconciler *service.ReconcileService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, reconciler: reconciler}
}

// GetStats handles GET /api/dashboard
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboard.GetDashboardStats(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, 200, "Dashboard statistics retrieved successfully", stats)
}

// Reconcile handles POST /api/admin/reconcile
func (h *DashboardHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.Reconcile(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, 200, "Reconciliation completed", report)
}
