package controllers

import (
	"net/http"

	"creditdesk/middleware"
	"creditdesk/models"
	"creditdesk/services"

	"github.com/gin-gonic/gin"
)

// UserController обрабатывает запросы по сотрудникам
type UserController struct {
	userService *services.UserService
}

func NewUserController(userService *services.UserService) *UserController {
	return &UserController{userService: userService}
}

func (ctl *UserController) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ctl.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (ctl *UserController) GetUsers(c *gin.Context) {
	page, err := ctl.userService.ListUsers(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctl *UserController) GetUser(c *gin.Context) {
	user, err := ctl.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser обслуживает PUT и PATCH: незаданные поля не меняются
func (ctl *UserController) UpdateUser(c *gin.Context) {
	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ctl.userService.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctl *UserController) DeleteUser(c *gin.Context) {
	if err := ctl.userService.DeactivateUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *UserController) RegisterRoutes(rg *gin.RouterGroup, checker middleware.PermissionChecker) {
	users := rg.Group("/users", middleware.RequirePermission(checker, models.ModelUser))
	users.GET("", ctl.GetUsers)
	users.POST("", ctl.CreateUser)
	users.GET("/:id", ctl.GetUser)
	users.PUT("/:id", ctl.UpdateUser)
	users.PATCH("/:id", ctl.UpdateUser)
	users.DELETE("/:id", ctl.DeleteUser)
}
