package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-teranga/internal/repository"
	"campus-teranga/internal/service"
)

// AdminHandler holds dependencies for the admin user-management endpoints.
type AdminHandler struct {
	logger *zap.Logger
	users  *service.UserService
}

func NewAdminHandler(logger *zap.Logger, users *service.UserService) *AdminHandler {
	return &AdminHandler{
		logger: logger,
		users:  users,
	}
}

// ListUsers handles GET /api/admin/users with pagination, search and a role
// filter.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	users, total, err := h.users.List(c.Request.Context(), repository.ListFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Error fetching users")
		return
	}

	pages := (total + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	})
}

// GetUser handles GET /api/admin/users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("get user failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Error fetching user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// UpdateUser handles PUT /api/admin/users/:id. A role value is applied only
// when the acting principal is super_admin; otherwise it is dropped and the
// rest of the update proceeds.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	actor, ok := GetAuthUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		FullName *string `json:"fullName"`
		Email    *string `json:"email"`
		IsActive *bool   `json:"isActive"`
		Role     *string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid admin update request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.users.AdminUpdate(c.Request.Context(), actor, c.Param("id"), service.AdminUpdateInput{
		FullName: req.FullName,
		Email:    req.Email,
		IsActive: req.IsActive,
		Role:     req.Role,
	})
	if err != nil {
		if verrs, ok := asValidationErrors(err); ok {
			respondValidation(c, verrs)
			return
		}
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "User not found")
		case errors.Is(err, repository.ErrEmailTaken):
			respondError(c, http.StatusBadRequest, "Email address is already in use")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "Only super admin can change user roles")
		default:
			h.logger.Error("admin update failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Error updating user")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user":    updated,
	})
}

// DeleteUser handles DELETE /api/admin/users/:id. Deletion is super_admin
// only regardless of the surrounding route tier.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := GetAuthUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "Access denied. Super admin privileges required.")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("delete user failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Error deleting user")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
}
