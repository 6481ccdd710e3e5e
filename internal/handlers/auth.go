// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/depot-app/depot-backend/internal/middleware"
	"github.com/depot-app/depot-backend/internal/services"
	"github.com/depot-app/depot-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.authService.Register(&req, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "User")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Registration successful",
		"user":    user,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.authService.Login(&req, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "User")
		return
	}

	utils.SuccessResponse(c, resp)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	actor := middleware.GetActor(c)

	if err := h.authService.Logout(actor, c.ClientIP()); err != nil {
		respondServiceError(c, err, "Session")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Logged out",
	})
}

// GET /auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	actor := middleware.GetActor(c)

	user, err := h.authService.GetUser(actor, actor.ID)
	if err != nil {
		respondServiceError(c, err, "User")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}
