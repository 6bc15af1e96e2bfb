package controllers

import (
	"net/http"

	"creditdesk/middleware"
	"creditdesk/models"
	"creditdesk/services"

	"github.com/gin-gonic/gin"
)

// CatalogController обрабатывает запросы по товарам и типам товаров
type CatalogController struct {
	catalogService *services.CatalogService
}

func NewCatalogController(catalogService *services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

func (ctl *CatalogController) CreateProductType(c *gin.Context) {
	var dto services.ProductTypeDTO
	if !bindJSON(c, &dto) {
		return
	}
	productType, err := ctl.catalogService.CreateProductType(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, productType)
}

// GetProductTypes возвращает типы товаров, фильтр ?description=
func (ctl *CatalogController) GetProductTypes(c *gin.Context) {
	filter := services.ProductTypeFilter{Description: c.Query("description")}
	page, err := ctl.catalogService.ListProductTypes(c.Request.Context(), filter, listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctl *CatalogController) GetProductType(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	productType, err := ctl.catalogService.GetProductType(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, productType)
}

// UpdateProductType обслуживает PUT и PATCH: у типа одно изменяемое поле
func (ctl *CatalogController) UpdateProductType(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var dto services.ProductTypeDTO
	if !bindJSON(c, &dto) {
		return
	}
	productType, err := ctl.catalogService.UpdateProductType(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, productType)
}

func (ctl *CatalogController) DeleteProductType(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.catalogService.DeleteProductType(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *CatalogController) CreateProduct(c *gin.Context) {
	var dto services.ProductDTO
	if !bindJSON(c, &dto) {
		return
	}
	product, err := ctl.catalogService.CreateProduct(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts возвращает страницу товаров, фильтры ?is_active= и ?product_type=
func (ctl *CatalogController) GetProducts(c *gin.Context) {
	isActive, ok := boolQuery(c, "is_active")
	if !ok {
		return
	}
	productTypeID, ok := uintQuery(c, "product_type")
	if !ok {
		return
	}
	filter := services.ProductFilter{IsActive: isActive, ProductTypeID: productTypeID}
	page, err := ctl.catalogService.ListProducts(c.Request.Context(), filter, listParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctl *CatalogController) GetProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	product, err := ctl.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctl *CatalogController) UpdateProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var dto services.ProductDTO
	if !bindJSON(c, &dto) {
		return
	}
	product, err := ctl.catalogService.UpdateProduct(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctl *CatalogController) PatchProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var dto services.PatchProductDTO
	if !bindJSON(c, &dto) {
		return
	}
	product, err := ctl.catalogService.PatchProduct(c.Request.Context(), id, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct деактивирует товар; он остается в уже оформленных кредитах
func (ctl *CatalogController) DeleteProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.catalogService.DeactivateProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *CatalogController) RegisterRoutes(rg *gin.RouterGroup, checker middleware.PermissionChecker) {
	types := rg.Group("/product-types", middleware.RequirePermission(checker, models.ModelProductType))
	types.GET("", ctl.GetProductTypes)
	types.POST("", ctl.CreateProductType)
	types.GET("/:id", ctl.GetProductType)
	types.PUT("/:id", ctl.UpdateProductType)
	types.PATCH("/:id", ctl.UpdateProductType)
	types.DELETE("/:id", ctl.DeleteProductType)

	products := rg.Group("/products", middleware.RequirePermission(checker, models.ModelProduct))
	products.GET("", ctl.GetProducts)
	products.POST("", ctl.CreateProduct)
	products.GET("/:id", ctl.GetProduct)
	products.PUT("/:id", ctl.UpdateProduct)
	products.PATCH("/:id", ctl.PatchProduct)
	products.DELETE("/:id", ctl.DeleteProduct)
}
