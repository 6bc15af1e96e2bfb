package controllers

import (
	"net/http"

	"creditdesk/middleware"
	"creditdesk/models"
	"creditdesk/services"

	"github.com/gin-gonic/gin"
)

// ClientController обрабатывает запросы по клиентам
type ClientController struct {
	clientService *services.ClientService
}

func NewClientController(clientService *services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

func (ctl *ClientController) CreateClient(c *gin.Context) {
	var dto services.ClientDTO
	if !bindJSON(c, &dto) {
		return
	}
	client, err := ctl.clientService.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// GetClients возвращает страницу клиентов, фильтр ?is_active=
func (ctl *ClientController) GetClients(c *gin.Context) {
	isActive, ok := boolQuery(c, "is_active")
	if !ok {
		return
	}
	page, err := ctl.clientService.List(c.Request.Context(), services.ClientFilter{IsActive: isActive}, listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctl *ClientController) GetClient(c *gin.Context) {
	client, err := ctl.clientService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (ctl *ClientController) UpdateClient(c *gin.Context) {
	var dto services.ClientDTO
	if !bindJSON(c, &dto) {
		return
	}
	client, err := ctl.clientService.Update(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (ctl *ClientController) PatchClient(c *gin.Context) {
	var dto services.PatchClientDTO
	if !bindJSON(c, &dto) {
		return
	}
	client, err := ctl.clientService.Patch(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient не удаляет запись, а деактивирует клиента
func (ctl *ClientController) DeleteClient(c *gin.Context) {
	if err := ctl.clientService.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *ClientController) RegisterRoutes(rg *gin.RouterGroup, checker middleware.PermissionChecker) {
	clients := rg.Group("/clients", middleware.RequirePermission(checker, models.ModelClient))
	clients.GET("", ctl.GetClients)
	clients.POST("", ctl.CreateClient)
	clients.GET("/:id", ctl.GetClient)
	clients.PUT("/:id", ctl.UpdateClient)
	clients.PATCH("/:id", ctl.PatchClient)
	clients.DELETE("/:id", ctl.DeleteClient)
}
