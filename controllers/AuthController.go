package controllers

import (
	"net/http"
	"time"

	"creditdesk/config"
	"creditdesk/middleware"
	"creditdesk/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	userService *services.UserService
	config      *config.Config
}

type SignInResponse struct {
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
	User      *services.UserResponse `json:"user"`
}

func NewAuthController(userService *services.UserService, cfg *config.Config) *AuthController {
	return &AuthController{
		userService: userService,
		config:      cfg,
	}
}

// SignIn обрабатывает вход сотрудника и выдает JWT токен
func (ctl *AuthController) SignIn(c *gin.Context) {
	var req services.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctl.userService.Authenticate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Создаем JWT токен
	token, expiresAt, err := middleware.GenerateToken(ctl.config.JWT.SecretKey, ctl.config.TokenTTL(), user.ID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SignInResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// RegisterRoutes регистрирует публичные маршруты аутентификации
func (ctl *AuthController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signIn", ctl.SignIn)
}
