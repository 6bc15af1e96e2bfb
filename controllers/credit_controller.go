package controllers

import (
	"net/http"

	"creditdesk/middleware"
	"creditdesk/models"
	"creditdesk/services"

	"github.com/gin-gonic/gin"
)

// CreditController обрабатывает запросы, связанные с кредитами
type CreditController struct {
	creditService *services.CreditService
}

// NewCreditController создает новый экземпляр CreditController
func NewCreditController(creditService *services.CreditService) *CreditController {
	return &CreditController{creditService: creditService}
}

// CreateCredit обрабатывает запрос на создание кредита
func (ctl *CreditController) CreateCredit(c *gin.Context) {
	var dto services.CreateCreditDTO
	if !bindJSON(c, &dto) {
		return
	}

	credit, err := ctl.creditService.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, credit)
}

// GetCredits возвращает страницу кредитов
func (ctl *CreditController) GetCredits(c *gin.Context) {
	page, err := ctl.creditService.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetCredit возвращает кредит с позициями и графиком платежей
func (ctl *CreditController) GetCredit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	credit, err := ctl.creditService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credit)
}

// UpdateCredit выполняет переход статуса кредита (PUT и PATCH)
func (ctl *CreditController) UpdateCredit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var dto services.UpdateCreditDTO
	if !bindJSON(c, &dto) {
		return
	}

	credit, err := ctl.creditService.Update(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credit)
}

// DeleteCredit удаляет кредит без позиций и платежей
func (ctl *CreditController) DeleteCredit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.creditService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCreditsByClient возвращает все кредиты клиента
func (ctl *CreditController) GetCreditsByClient(c *gin.Context) {
	credits, err := ctl.creditService.ListByClient(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credits)
}

// GetCreditTotal пересчитывает сумму кредита по текущим ценам
func (ctl *CreditController) GetCreditTotal(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	total, err := ctl.creditService.CalculateTotalAmount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, total)
}

// GetCreditProducts возвращает позиции кредитов, фильтр ?credit=
func (ctl *CreditController) GetCreditProducts(c *gin.Context) {
	creditID, ok := uintQuery(c, "credit")
	if !ok {
		return
	}
	page, err := ctl.creditService.ListLineItems(c.Request.Context(), creditID, listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// RegisterRoutes регистрирует маршруты кредитов и их позиций
func (ctl *CreditController) RegisterRoutes(rg *gin.RouterGroup, checker middleware.PermissionChecker) {
	credits := rg.Group("/credits", middleware.RequirePermission(checker, models.ModelCredit))
	credits.GET("", ctl.GetCredits)
	credits.POST("", ctl.CreateCredit)
	credits.GET("/clients/:client_id", ctl.GetCreditsByClient)
	credits.GET("/:id", ctl.GetCredit)
	credits.GET("/:id/total", ctl.GetCreditTotal)
	credits.PUT("/:id", ctl.UpdateCredit)
	credits.PATCH("/:id", ctl.UpdateCredit)
	credits.DELETE("/:id", ctl.DeleteCredit)

	items := rg.Group("/credit-products", middleware.RequirePermission(checker, models.ModelClientCreditProduct))
	items.GET("", ctl.GetCreditProducts)
}
