package handlers

import (
	"net/http"

	"socialposts/api/middleware"
	"socialposts/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandlers содержит обработчики регистрации и входа
type AuthHandlers struct {
	users *services.UserService
	log   *zap.Logger
}

func NewAuthHandlers(users *services.UserService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{users: users, log: log}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Register - POST /api/users
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("unreadable register body", zap.Error(err))
	}

	token, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// Login - POST /api/auth
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("unreadable login body", zap.Error(err))
	}

	token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// CurrentUser - GET /api/auth
func (h *AuthHandlers) CurrentUser(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	user, err := h.users.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout - DELETE /api/auth, отзывает все токены пользователя
func (h *AuthHandlers) Logout(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	if err := h.users.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Logged out"})
}
