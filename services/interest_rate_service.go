package services

import (
	"context"
	"errors"
	"time"

	"creditdesk/models"
	"creditdesk/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InterestRateDTO - данные новой процентной ставки
type InterestRateDTO struct {
	Percentage decimal.Decimal `json:"percentage"`
}

// KeyRateImportDTO - результат импорта ключевой ставки
type KeyRateImportDTO struct {
	InterestRate models.InterestRate `json:"interest_rate"`
	Date         string              `json:"date"`
	Created      bool                `json:"created"`
}

// InterestRateService ведет справочник процентных ставок.
// Ставки только создаются; изменить существующую нельзя.
type InterestRateService struct {
	db        *gorm.DB
	validator *validator.Validate
	keyRates  KeyRateSource
}

// NewInterestRateService создает новый экземпляр InterestRateService
func NewInterestRateService(db *gorm.DB, keyRates KeyRateSource) *InterestRateService {
	return &InterestRateService{
		db:        db,
		validator: newValidator(),
		keyRates:  keyRates,
	}
}

// Create добавляет ставку
func (s *InterestRateService) Create(ctx context.Context, dto InterestRateDTO) (*models.InterestRate, error) {
	rate := &models.InterestRate{Percentage: dto.Percentage}
	if err := rate.Validate(); err != nil {
		return nil, fromModelError(err)
	}
	if err := s.db.WithContext(ctx).Create(rate).Error; err != nil {
		return nil, err
	}
	return rate, nil
}

// GetByID возвращает ставку по ID
func (s *InterestRateService) GetByID(ctx context.Context, id uint) (*models.InterestRate, error) {
	var rate models.InterestRate
	if err := s.db.WithContext(ctx).First(&rate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("interest rate", id)
		}
		return nil, err
	}
	return &rate, nil
}

// List возвращает страницу ставок
func (s *InterestRateService) List(ctx context.Context, params ListParams) (Page[models.InterestRate], error) {
	params = params.Normalize()
	query := s.db.WithContext(ctx).Model(&models.InterestRate{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.InterestRate]{}, err
	}

	var rates []models.InterestRate
	if err := query.Scopes(params.Paginate).Order("id ASC").Find(&rates).Error; err != nil {
		return Page[models.InterestRate]{}, err
	}
	return newPage(rates, total, params), nil
}

// Delete удаляет ставку, если она не назначена ни одному кредиту
func (s *InterestRateService) Delete(ctx context.Context, id uint) error {
	rate, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Credit{}).Where("interest_rate_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &IntegrityError{Message: "Cannot delete the interest rate because credits still reference it."}
	}
	return db.Delete(rate).Error
}

// ImportKeyRate загружает ключевую ставку ЦБ и сохраняет ее как процентную ставку.
// Если такая ставка уже есть, возвращается существующая запись.
func (s *InterestRateService) ImportKeyRate(ctx context.Context) (*KeyRateImportDTO, error) {
	startTime := time.Now()
	if s.keyRates == nil {
		return nil, errors.New("источник ключевой ставки не настроен")
	}

	keyRate, err := s.keyRates.LatestKeyRate(ctx)
	if err != nil {
		utils.LogOperation("interest_rate.import_key_rate", startTime, err)
		return nil, err
	}

	percentage := keyRate.Rate.Round(2)
	rate := models.InterestRate{Percentage: percentage}
	if err := rate.Validate(); err != nil {
		return nil, fromModelError(err)
	}

	db := s.db.WithContext(ctx)
	var existing models.InterestRate
	err = db.Where("percentage = ?", percentage).First(&existing).Error
	switch {
	case err == nil:
		utils.LogOperation("interest_rate.import_key_rate", startTime, nil)
		return &KeyRateImportDTO{InterestRate: existing, Date: formatDate(keyRate.Date), Created: false}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if err := db.Create(&rate).Error; err != nil {
		return nil, err
	}

	utils.LogOperation("interest_rate.import_key_rate", startTime, nil)
	utils.LogInfo("импортирована ключевая ставка %s на %s", rate.String(), formatDate(keyRate.Date))
	return &KeyRateImportDTO{InterestRate: rate, Date: formatDate(keyRate.Date), Created: true}, nil
}
