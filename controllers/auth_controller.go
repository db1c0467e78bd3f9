package controllers

import (
	"net/http"

	"raffle-bff/clients"
	"raffle-bff/middleware"
	"raffle-bff/services"
	"raffle-bff/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthController handles sign-in, the current user and display preferences.
type AuthController struct {
	authService services.AuthService
	sessions    *session.Manager
	logger      *zap.Logger
}

func NewAuthController(authService services.AuthService, sessions *session.Manager, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, sessions: sessions, logger: logger}
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// Register handles POST /bff/auth/register.
func (ac *AuthController) Register(c *gin.Context) {
	var req clients.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res, err := ac.authService.Register(c.Request.Context(), middleware.DeviceStore(c), req)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	body := gin.H{"message": res.Message}
	if res.Session != nil {
		body["user"] = res.Session.Identity
		body["token"] = res.Session.Token
	}
	c.JSON(http.StatusCreated, body)
}

// Login handles POST /bff/auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	var req clients.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res, err := ac.authService.Login(c.Request.Context(), middleware.DeviceStore(c), req)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	message := res.Message
	if message == "" {
		message = "Logged in successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"user":    res.Session.Identity,
		"token":   res.Session.Token,
	})
}

// Logout handles POST /bff/auth/logout. Signing out twice is not an error.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.authService.Logout(c.Request.Context(), middleware.DeviceStore(c), middleware.DeviceID(c)); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /bff/auth/me.
func (ac *AuthController) Me(c *gin.Context) {
	sess, err := ac.authService.Current(c.Request.Context(), middleware.DeviceStore(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sess.Identity, "isAdmin": sess.Identity.IsAdmin()})
}

// GetTheme handles GET /bff/preferences/theme.
func (ac *AuthController) GetTheme(c *gin.Context) {
	theme, err := ac.sessions.Theme(c.Request.Context(), middleware.DeviceStore(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

// SetTheme handles PUT /bff/preferences/theme.
func (ac *AuthController) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.Theme != session.ThemeLight && req.Theme != session.ThemeDark {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Theme must be light or dark"})
		return
	}

	if err := ac.sessions.SetTheme(c.Request.Context(), middleware.DeviceStore(c), req.Theme); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}
