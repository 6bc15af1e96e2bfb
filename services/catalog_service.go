package services

import (
	"context"
	"errors"
	"strings"

	"creditdesk/models"
	"creditdesk/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductTypeDTO - данные типа товара
type ProductTypeDTO struct {
	Description string `json:"description" validate:"required,max=100"`
}

// ProductTypeFilter - фильтры списка типов товаров
type ProductTypeFilter struct {
	Description string
}

// ProductDTO - данные товара для создания и полного обновления
type ProductDTO struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Description   string          `json:"description" validate:"max=255"`
	Price         decimal.Decimal `json:"price"`
	IsActive      *bool           `json:"is_active"`
	ProductTypeID uint            `json:"product_type" validate:"required"`
}

// PatchProductDTO - частичное обновление товара
type PatchProductDTO struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string          `json:"description" validate:"omitempty,max=255"`
	Price         *decimal.Decimal `json:"price"`
	IsActive      *bool            `json:"is_active"`
	ProductTypeID *uint            `json:"product_type"`
}

// ProductFilter - фильтры списка товаров
type ProductFilter struct {
	IsActive      *bool
	ProductTypeID uint
}

// CatalogService ведет справочник товаров и их типов
type CatalogService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewCatalogService создает новый экземпляр CatalogService
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{
		db:        db,
		validator: newValidator(),
	}
}

// CreateProductType создает тип товара
func (s *CatalogService) CreateProductType(ctx context.Context, dto ProductTypeDTO) (*models.ProductType, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	productType := &models.ProductType{Description: dto.Description}
	if err := s.db.WithContext(ctx).Create(productType).Error; err != nil {
		return nil, err
	}
	return productType, nil
}

// GetProductType возвращает тип товара по ID
func (s *CatalogService) GetProductType(ctx context.Context, id uint) (*models.ProductType, error) {
	var productType models.ProductType
	if err := s.db.WithContext(ctx).First(&productType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product type", id)
		}
		return nil, err
	}
	return &productType, nil
}

// ListProductTypes возвращает страницу типов с фильтром, поиском и сортировкой по описанию
func (s *CatalogService) ListProductTypes(ctx context.Context, filter ProductTypeFilter, params ListParams) (Page[models.ProductType], error) {
	params = params.Normalize()
	query := s.db.WithContext(ctx).Model(&models.ProductType{})
	if filter.Description != "" {
		query = query.Where("description = ?", filter.Description)
	}
	if params.Search != "" {
		pattern := likePattern(strings.ToLower(params.Search))
		query = query.Where("LOWER(description) LIKE ? OR CAST(id AS TEXT) LIKE ?", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.ProductType]{}, err
	}

	order := clause.OrderByColumn{Column: clause.Column{Name: "id"}}
	switch params.Ordering {
	case "description":
		order = clause.OrderByColumn{Column: clause.Column{Name: "description"}}
	case "-description":
		order = clause.OrderByColumn{Column: clause.Column{Name: "description"}, Desc: true}
	}

	var types []models.ProductType
	if err := query.Scopes(params.Paginate).Order(order).Find(&types).Error; err != nil {
		return Page[models.ProductType]{}, err
	}
	return newPage(types, total, params), nil
}

// UpdateProductType меняет описание типа товара
func (s *CatalogService) UpdateProductType(ctx context.Context, id uint, dto ProductTypeDTO) (*models.ProductType, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	productType, err := s.GetProductType(ctx, id)
	if err != nil {
		return nil, err
	}
	productType.Description = dto.Description
	if err := s.db.WithContext(ctx).Save(productType).Error; err != nil {
		return nil, err
	}
	return productType, nil
}

// DeleteProductType удаляет тип, если на него не ссылается ни один товар
func (s *CatalogService) DeleteProductType(ctx context.Context, id uint) error {
	productType, err := s.GetProductType(ctx, id)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Product{}).Where("product_type_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &IntegrityError{Message: "Cannot delete the product type because products still reference it."}
	}
	return db.Delete(productType).Error
}

// CreateProduct добавляет товар в каталог
func (s *CatalogService) CreateProduct(ctx context.Context, dto ProductDTO) (*models.Product, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	if _, err := s.GetProductType(ctx, dto.ProductTypeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ValidationError{Field: "product_type", Message: "Invalid pk - object does not exist."}
		}
		return nil, err
	}

	product := &models.Product{
		Name:          dto.Name,
		Description:   dto.Description,
		Price:         dto.Price,
		IsActive:      dto.IsActive == nil || *dto.IsActive,
		ProductTypeID: dto.ProductTypeID,
	}
	if err := product.Validate(); err != nil {
		return nil, fromModelError(err)
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return nil, err
	}

	utils.LogInfo("добавлен товар %d %q", product.ID, product.Name)
	return product, nil
}

// GetProduct возвращает товар по ID
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product", id)
		}
		return nil, err
	}
	return &product, nil
}

// ListProducts возвращает страницу товаров с поиском по названию и описанию
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter, params ListParams) (Page[models.Product], error) {
	params = params.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ProductTypeID != 0 {
		query = query.Where("product_type_id = ?", filter.ProductTypeID)
	}
	if params.Search != "" {
		pattern := likePattern(strings.ToLower(params.Search))
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.Product]{}, err
	}

	var products []models.Product
	if err := query.Scopes(params.Paginate).Order("id ASC").Find(&products).Error; err != nil {
		return Page[models.Product]{}, err
	}
	return newPage(products, total, params), nil
}

// UpdateProduct полностью заменяет данные товара
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, dto ProductDTO) (*models.Product, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	patch := PatchProductDTO{
		Name:          &dto.Name,
		Description:   &dto.Description,
		Price:         &dto.Price,
		IsActive:      dto.IsActive,
		ProductTypeID: &dto.ProductTypeID,
	}
	return s.PatchProduct(ctx, id, patch)
}

// PatchProduct обновляет только переданные поля товара
func (s *CatalogService) PatchProduct(ctx context.Context, id uint, dto PatchProductDTO) (*models.Product, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		product.Name = *dto.Name
	}
	if dto.Description != nil {
		product.Description = *dto.Description
	}
	if dto.Price != nil {
		product.Price = *dto.Price
	}
	if dto.IsActive != nil {
		product.IsActive = *dto.IsActive
	}
	if dto.ProductTypeID != nil && *dto.ProductTypeID != product.ProductTypeID {
		if _, err := s.GetProductType(ctx, *dto.ProductTypeID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, &ValidationError{Field: "product_type", Message: "Invalid pk - object does not exist."}
			}
			return nil, err
		}
		product.ProductTypeID = *dto.ProductTypeID
	}
	if err := product.Validate(); err != nil {
		return nil, fromModelError(err)
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeactivateProduct снимает товар с продажи; существующие кредиты не затрагиваются
func (s *CatalogService) DeactivateProduct(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("product", id)
	}
	utils.LogInfo("товар %d деактивирован", id)
	return nil
}
