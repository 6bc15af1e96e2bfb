package controllers

import (
	"net/http"

	"creditdesk/middleware"
	"creditdesk/models"
	"creditdesk/services"

	"github.com/gin-gonic/gin"
)

// InterestRateController обрабатывает запросы по процентным ставкам
type InterestRateController struct {
	rateService *services.InterestRateService
}

func NewInterestRateController(rateService *services.InterestRateService) *InterestRateController {
	return &InterestRateController{rateService: rateService}
}

func (ctl *InterestRateController) CreateInterestRate(c *gin.Context) {
	var dto services.InterestRateDTO
	if !bindJSON(c, &dto) {
		return
	}
	rate, err := ctl.rateService.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rate)
}

func (ctl *InterestRateController) GetInterestRates(c *gin.Context) {
	page, err := ctl.rateService.List(c.Request.Context(), listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctl *InterestRateController) GetInterestRate(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	rate, err := ctl.rateService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

func (ctl *InterestRateController) DeleteInterestRate(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.rateService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportKeyRate загружает ключевую ставку ЦБ и сохраняет ее как процентную ставку
func (ctl *InterestRateController) ImportKeyRate(c *gin.Context) {
	result, err := ctl.rateService.ImportKeyRate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (ctl *InterestRateController) RegisterRoutes(rg *gin.RouterGroup, checker middleware.PermissionChecker) {
	rates := rg.Group("/interest-rates", middleware.RequirePermission(checker, models.ModelInterestRate))
	rates.GET("", ctl.GetInterestRates)
	rates.POST("", ctl.CreateInterestRate)
	rates.POST("/key-rate", ctl.ImportKeyRate)
	rates.GET("/:id", ctl.GetInterestRate)
	rates.DELETE("/:id", ctl.DeleteInterestRate)
}
