package services

import (
	"context"
	"errors"
	"strings"

	"creditdesk/models"
	"creditdesk/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ClientDTO - данные клиента для создания и полного обновления
type ClientDTO struct {
	ID        string `json:"id" validate:"required,max=20"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Phone     string `json:"phone" validate:"max=20"`
	Address   string `json:"address" validate:"max=100"`
	IsActive  *bool  `json:"is_active"`
}

// PatchClientDTO - частичное обновление клиента
type PatchClientDTO struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Email     *string `json:"email" validate:"omitempty,email,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Address   *string `json:"address" validate:"omitempty,max=100"`
	IsActive  *bool   `json:"is_active"`
}

// ClientFilter - фильтры списка клиентов
type ClientFilter struct {
	IsActive *bool
}

// ClientService предоставляет методы для работы с клиентами
type ClientService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewClientService создает новый экземпляр ClientService
func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{
		db:        db,
		validator: newValidator(),
	}
}

// Create регистрирует клиента; ID - номер документа и должен быть уникальным
func (s *ClientService) Create(ctx context.Context, dto ClientDTO) (*models.Client, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Client{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ValidationError{Field: "id", Message: "client with this id already exists."}
	}

	client := &models.Client{
		ID:        strings.TrimSpace(dto.ID),
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Address:   dto.Address,
		IsActive:  dto.IsActive == nil || *dto.IsActive,
	}
	if err := db.Create(client).Error; err != nil {
		return nil, err
	}

	utils.LogInfo("создан клиент %s", client.ID)
	return client, nil
}

// GetByID возвращает клиента по номеру документа
func (s *ClientService) GetByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("client", id)
		}
		return nil, err
	}
	return &client, nil
}

// List возвращает страницу клиентов с поиском по ID, имени и email
func (s *ClientService) List(ctx context.Context, filter ClientFilter, params ListParams) (Page[models.Client], error) {
	params = params.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Client{})
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if params.Search != "" {
		pattern := likePattern(strings.ToLower(params.Search))
		query = query.Where(
			"LOWER(id) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.Client]{}, err
	}

	var clients []models.Client
	if err := query.Scopes(params.Paginate).Order("id ASC").Find(&clients).Error; err != nil {
		return Page[models.Client]{}, err
	}
	return newPage(clients, total, params), nil
}

// Update полностью заменяет данные клиента, кроме ID
func (s *ClientService) Update(ctx context.Context, id string, dto ClientDTO) (*models.Client, error) {
	dto.ID = id
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	client, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client.FirstName = dto.FirstName
	client.LastName = dto.LastName
	client.Email = dto.Email
	client.Phone = dto.Phone
	client.Address = dto.Address
	if dto.IsActive != nil {
		client.IsActive = *dto.IsActive
	}
	if err := s.db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

// Patch обновляет только переданные поля
func (s *ClientService) Patch(ctx context.Context, id string, dto PatchClientDTO) (*models.Client, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	client, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.FirstName != nil {
		client.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		client.LastName = *dto.LastName
	}
	if dto.Email != nil {
		client.Email = *dto.Email
	}
	if dto.Phone != nil {
		client.Phone = *dto.Phone
	}
	if dto.Address != nil {
		client.Address = *dto.Address
	}
	if dto.IsActive != nil {
		client.IsActive = *dto.IsActive
	}
	if err := s.db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

// Deactivate выполняет мягкое удаление: клиент остается в базе с is_active=false
func (s *ClientService) Deactivate(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("client", id)
	}
	utils.LogInfo("клиент %s деактивирован", id)
	return nil
}
