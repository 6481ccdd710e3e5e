// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/depot-app/depot-backend/internal/middleware"
	"github.com/depot-app/depot-backend/internal/models"
	"github.com/depot-app/depot-backend/internal/services"
	"github.com/depot-app/depot-backend/internal/utils"
)

// AdminHandler serves the management console: cross-user visibility over
// users, roles, products, uploads, and the activity log. Routes are bound
// behind the AdminRequired middleware and the services re-check the role.
type AdminHandler struct {
	adminService    *services.AdminService
	activityService *services.ActivityService
	productService  *services.ProductService
	uploadService   *services.UploadService
}

func NewAdminHandler(adminService *services.AdminService, activityService *services.ActivityService,
	productService *services.ProductService, uploadService *services.UploadService) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		activityService: activityService,
		productService:  productService,
		uploadService:   uploadService,
	}
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor := middleware.GetActor(c)
	params := utils.GetPaginationParams(c)

	users, total, err := h.adminService.ListUsers(actor, params)
	if err != nil {
		respondServiceError(c, err, "User")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// PUT /admin/users/:id/active
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.adminService.SetUserActive(actor, id, *req.Active)
	if err != nil {
		respondServiceError(c, err, "User")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "User updated",
		"user":    user,
	})
}

// DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	warning, err := h.adminService.DeleteUser(actor, id, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "User")
		return
	}

	if warning != "" {
		utils.SuccessResponseWithWarning(c, gin.H{"message": "User deleted"}, warning)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "User deleted",
	})
}

// GET /admin/roles
func (h *AdminHandler) ListRoles(c *gin.Context) {
	actor := middleware.GetActor(c)

	roles, err := h.adminService.ListRoles(actor)
	if err != nil {
		respondServiceError(c, err, "Role")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"roles": roles,
	})
}

// GET /admin/activity
func (h *AdminHandler) ListActivity(c *gin.Context) {
	actor := middleware.GetActor(c)
	params := utils.GetPaginationParams(c)

	entries, total, err := h.activityService.List(actor, params)
	if err != nil {
		respondServiceError(c, err, "Activity log")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(entries, total, params))
}

// DELETE /admin/activity/:id
func (h *AdminHandler) DeleteActivity(c *gin.Context) {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid activity log ID", nil)
		return
	}

	if err := h.activityService.Delete(actor, id); err != nil {
		respondServiceError(c, err, "Activity log")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Activity log entry deleted",
	})
}

// GET /admin/products — lists everything, any owner. Editing goes through
// the normal product routes, whose owner-or-admin gate already admits the
// administrator.
func (h *AdminHandler) ListProducts(c *gin.Context) {
	actor := middleware.GetActor(c)
	if !actor.HasRole(models.RoleAdmin) {
		utils.ForbiddenResponse(c, "Administrator role required")
		return
	}

	products, err := h.productService.List(services.ProductFilter{})
	if err != nil {
		respondServiceError(c, err, "Product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count":    len(products),
		"products": products,
	})
}

// GET /admin/uploads — the upload listing already widens to all owners for
// an admin actor.
func (h *AdminHandler) ListUploads(c *gin.Context) {
	actor := middleware.GetActor(c)
	if !actor.HasRole(models.RoleAdmin) {
		utils.ForbiddenResponse(c, "Administrator role required")
		return
	}

	uploads, err := h.uploadService.List(actor)
	if err != nil {
		respondServiceError(c, err, "Upload")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count":   len(uploads),
		"uploads": uploads,
	})
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	actor := middleware.GetActor(c)

	stats, err := h.adminService.GetDashboardStats(actor)
	if err != nil {
		respondServiceError(c, err, "Dashboard")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /stats/dashboard — authenticated, not admin-gated: admins get the
// platform dashboard, everyone else their personal one.
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	actor := middleware.GetActor(c)

	if actor.HasRole(models.RoleAdmin) {
		stats, err := h.adminService.GetDashboardStats(actor)
		if err != nil {
			respondServiceError(c, err, "Dashboard")
			return
		}
		utils.SuccessResponse(c, gin.H{"stats": stats})
		return
	}

	stats, err := h.adminService.GetUserDashboardStats(actor)
	if err != nil {
		respondServiceError(c, err, "Dashboard")
		return
	}
	utils.SuccessResponse(c, gin.H{"stats": stats})
}
