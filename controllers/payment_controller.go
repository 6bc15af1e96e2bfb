package controllers

import (
	"net/http"

	"creditdesk/middleware"
	"creditdesk/models"
	"creditdesk/services"

	"github.com/gin-gonic/gin"
)

// PaymentController обрабатывает запросы по платежам
type PaymentController struct {
	paymentService *services.PaymentService
}

func NewPaymentController(paymentService *services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// GetPayments возвращает платежи, фильтры ?credit= и ?status=
func (ctl *PaymentController) GetPayments(c *gin.Context) {
	creditID, ok := uintQuery(c, "credit")
	if !ok {
		return
	}
	filter := services.PaymentFilter{
		CreditID: creditID,
		Status:   models.PaymentStatus(c.Query("status")),
	}
	page, err := ctl.paymentService.List(c.Request.Context(), filter, listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctl *PaymentController) GetPayment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	payment, err := ctl.paymentService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// CreatePayment добавляет взнос вне графика
func (ctl *PaymentController) CreatePayment(c *gin.Context) {
	var dto services.CreatePaymentDTO
	if !bindJSON(c, &dto) {
		return
	}
	payment, err := ctl.paymentService.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// UpdatePayment выполняет переход статуса платежа (PUT и PATCH)
func (ctl *PaymentController) UpdatePayment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var dto services.UpdatePaymentDTO
	if !bindJSON(c, &dto) {
		return
	}
	payment, err := ctl.paymentService.Update(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (ctl *PaymentController) RegisterRoutes(rg *gin.RouterGroup, checker middleware.PermissionChecker) {
	payments := rg.Group("/payments", middleware.RequirePermission(checker, models.ModelPayment))
	payments.GET("", ctl.GetPayments)
	payments.POST("", ctl.CreatePayment)
	payments.GET("/:id", ctl.GetPayment)
	payments.PUT("/:id", ctl.UpdatePayment)
	payments.PATCH("/:id", ctl.UpdatePayment)
}
