package controllers

import (
	"net/http"

	"creditdesk/middleware"
	"creditdesk/models"
	"creditdesk/services"

	"github.com/gin-gonic/gin"
)

// GroupController обрабатывает запросы по группам и правам
type GroupController struct {
	accessService *services.AccessService
}

func NewGroupController(accessService *services.AccessService) *GroupController {
	return &GroupController{accessService: accessService}
}

func (ctl *GroupController) CreateGroup(c *gin.Context) {
	var dto services.GroupDTO
	if !bindJSON(c, &dto) {
		return
	}
	group, err := ctl.accessService.CreateGroup(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (ctl *GroupController) GetGroups(c *gin.Context) {
	page, err := ctl.accessService.ListGroups(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctl *GroupController) GetGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	group, err := ctl.accessService.GetGroup(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (ctl *GroupController) UpdateGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var dto services.GroupDTO
	if !bindJSON(c, &dto) {
		return
	}
	group, err := ctl.accessService.UpdateGroup(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (ctl *GroupController) DeleteGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.accessService.DeleteGroup(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPermissions возвращает все права; доступ как на просмотр групп
func (ctl *GroupController) GetPermissions(c *gin.Context) {
	permissions, err := ctl.accessService.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, permissions)
}

func (ctl *GroupController) RegisterRoutes(rg *gin.RouterGroup, checker middleware.PermissionChecker) {
	groups := rg.Group("/groups", middleware.RequirePermission(checker, models.ModelGroup))
	groups.GET("", ctl.GetGroups)
	groups.POST("", ctl.CreateGroup)
	groups.GET("/:id", ctl.GetGroup)
	groups.PUT("/:id", ctl.UpdateGroup)
	groups.DELETE("/:id", ctl.DeleteGroup)

	rg.GET("/permissions", middleware.RequirePermission(checker, models.ModelGroup), ctl.GetPermissions)
}
