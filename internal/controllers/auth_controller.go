package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard-be/internal/middleware"
	"taskboard-be/internal/models"
	"taskboard-be/internal/service"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	RegisterValidators()
	return &AuthController{
		authService: authService,
	}
}

// Signup handles POST /auth/signup
func (ac *AuthController) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	response, err := ac.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Login handles POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	response, err := ac.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUser handles GET /auth/user - returns the caller's profile
func (ac *AuthController) GetUser(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		respondError(c, errNoCaller)
		return
	}

	profile, err := ac.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ChangePassword handles POST and PUT /auth/change-password
func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		respondError(c, errNoCaller)
		return
	}

	var req models.ChangePasswordRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	if err := ac.authService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Password changed successfully",
	})
}
