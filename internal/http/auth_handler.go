package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-teranga/internal/repository"
	"campus-teranga/internal/service"
)

// AuthHandler holds dependencies for the account lifecycle endpoints.
type AuthHandler struct {
	logger  *zap.Logger
	users   *service.UserService
	jwtServ *service.JWTService
}

func NewAuthHandler(logger *zap.Logger, users *service.UserService, jwtServ *service.JWTService) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		users:   users,
		jwtServ: jwtServ,
	}
}

// Register handles POST /api/auth/register. The role is always forced to
// user; a role field in the body is never read.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FullName        string `json:"fullName"`
		PhoneNumber     string `json:"phoneNumber"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		FullName:        req.FullName,
		PhoneNumber:     req.PhoneNumber,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		if verrs, ok := asValidationErrors(err); ok {
			respondValidation(c, verrs)
			return
		}
		switch {
		case errors.Is(err, repository.ErrPhoneTaken):
			respondError(c, http.StatusBadRequest, "User already exists with this phone number")
		case errors.Is(err, repository.ErrEmailTaken):
			respondError(c, http.StatusBadRequest, "User already exists with this email address")
		default:
			h.logger.Error("register failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Server error during registration")
		}
		return
	}

	token, err := h.jwtServ.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Server error during registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"token":   token,
		"user":    user,
	})
}

// Login handles POST /api/auth/login. Unknown phone and wrong password get
// the same 401; a deactivated account gets a distinct 403.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Invalid phone number or password")
		case errors.Is(err, service.ErrAccountDeactivated):
			respondError(c, http.StatusForbidden, "Account is deactivated. Please contact support.")
		case errors.Is(err, service.ErrRateLimited):
			respondError(c, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		default:
			h.logger.Error("login failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Server error during login")
		}
		return
	}

	token, err := h.jwtServ.Issue(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Server error during login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logout is
// client-side disposal; with a revocation store configured the presented
// token is additionally invalidated server-side.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, ok := bearerToken(c); ok {
		if err := h.jwtServ.Revoke(token); err != nil {
			h.logger.Warn("token revoke failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// UpdateProfile handles PUT /api/auth/profile. Role and isActive are decoded
// only so their presence can be rejected explicitly.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		FullName *string `json:"fullName"`
		Email    *string `json:"email"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		if verrs, ok := asValidationErrors(err); ok {
			respondValidation(c, verrs)
			return
		}
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			respondError(c, http.StatusBadRequest, "Email address is already in use")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("profile update failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid password change request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		if verrs, ok := asValidationErrors(err); ok {
			respondValidation(c, verrs)
			return
		}
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			respondError(c, http.StatusBadRequest, "Current password is incorrect")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("password change failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}

// Deactivate handles PUT /api/auth/deactivate.
func (h *AuthHandler) Deactivate(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), user.ID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("deactivate failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account deactivated successfully"})
}
