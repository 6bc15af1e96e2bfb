package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"creditdesk/models"
	"creditdesk/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditProductDTO - позиция в запросе на создание кредита
type CreditProductDTO struct {
	ProductID uint `json:"id_product" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gte=1,lte=32767"`
}

// CreateCreditDTO представляет данные для создания кредита
type CreateCreditDTO struct {
	Description    string             `json:"description" validate:"required,max=50"`
	NoInstallment  int                `json:"no_installment" validate:"required,gte=1,lte=32767"`
	PenaltyRate    decimal.Decimal    `json:"penalty_rate"`
	InterestRateID uint               `json:"interest_rate" validate:"required"`
	ClientID       string             `json:"client" validate:"required,max=20"`
	Products       []CreditProductDTO `json:"products" validate:"dive"`
}

// UpdateCreditDTO - запрос на изменение кредита; учитывается только статус
type UpdateCreditDTO struct {
	Status models.CreditStatus `json:"status"`
}

// ApproveCredit - команда одобрения кредита
type ApproveCredit struct {
	CreditID uint
}

// RejectCredit - команда отклонения кредита
type RejectCredit struct {
	CreditID uint
}

// ClientInfoDTO - краткие данные клиента в ответе по кредиту
type ClientInfoDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// ProductInfoDTO - краткие данные товара
type ProductInfoDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ProductType uint   `json:"product_type"`
}

// CreditProductResponseDTO - позиция кредита в ответе
type CreditProductResponseDTO struct {
	ID          uint           `json:"id"`
	Credit      uint           `json:"credit"`
	ProductID   uint           `json:"id_product"`
	ProductInfo ProductInfoDTO `json:"product_info"`
	Quantity    int            `json:"quantity"`
}

// PaymentDTO представляет данные платежа
type PaymentDTO struct {
	ID            uint                 `json:"id"`
	PaymentAmount string               `json:"payment_amount"`
	PaymentDate   string               `json:"payment_date"`
	DueDate       string               `json:"due_date"`
	Status        models.PaymentStatus `json:"status"`
	Credit        uint                 `json:"credit"`
}

// CreditResponseDTO представляет ответ с данными кредита
type CreditResponseDTO struct {
	ID               uint                       `json:"id"`
	Description      string                     `json:"description"`
	TotalAmount      string                     `json:"total_amount"`
	NoInstallment    int                        `json:"no_installment"`
	ApplicationDate  string                     `json:"application_date"`
	StartDate        *string                    `json:"start_date"`
	EndDate          *string                    `json:"end_date"`
	PenaltyRate      string                     `json:"penalty_rate"`
	Status           models.CreditStatus        `json:"status"`
	InterestRate     uint                       `json:"interest_rate"`
	InterestRateInfo InterestRateInfoDTO        `json:"interest_rate_info"`
	Client           string                     `json:"client"`
	ClientInfo       ClientInfoDTO              `json:"client_info"`
	Products         []CreditProductResponseDTO `json:"products"`
	Payments         []PaymentDTO               `json:"payments"`
}

// InterestRateInfoDTO - ставка кредита без идентификатора
type InterestRateInfoDTO struct {
	Percentage string `json:"percentage"`
}

// CreditTotalDTO - пересчитанная по текущим ценам сумма кредита
type CreditTotalDTO struct {
	CreditID    uint   `json:"credit"`
	TotalAmount string `json:"total_amount"`
}

// CreditService предоставляет методы для работы с кредитами
type CreditService struct {
	db        *gorm.DB
	validator *validator.Validate
	notifier  Notifier
	metrics   *utils.Metrics
	now       func() time.Time
}

// NewCreditService создает новый экземпляр CreditService
func NewCreditService(db *gorm.DB, notifier Notifier) *CreditService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &CreditService{
		db:        db,
		validator: newValidator(),
		notifier:  notifier,
		metrics:   utils.GetMetrics(),
		now:       time.Now,
	}
}

func (s *CreditService) today() time.Time {
	return DateOf(s.now())
}

// preloadCredit загружает связи, нужные для ответа
func preloadCredit(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").
		Preload("InterestRate").
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("client_credit_products.id ASC")
		}).
		Preload("Products.Product").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.payment_date ASC, payments.id ASC")
		})
}

func toPaymentDTO(payment models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            payment.ID,
		PaymentAmount: payment.PaymentAmount.StringFixed(2),
		PaymentDate:   formatDate(payment.PaymentDate),
		DueDate:       formatDate(payment.DueDate),
		Status:        payment.Status,
		Credit:        payment.CreditID,
	}
}

func toCreditProductDTO(item models.ClientCreditProduct) CreditProductResponseDTO {
	return CreditProductResponseDTO{
		ID:        item.ID,
		Credit:    item.CreditID,
		ProductID: item.ProductID,
		ProductInfo: ProductInfoDTO{
			Name:        item.Product.Name,
			Description: item.Product.Description,
			Price:       item.Product.Price.StringFixed(2),
			ProductType: item.Product.ProductTypeID,
		},
		Quantity: item.Quantity,
	}
}

// toCreditResponse конвертирует модель Credit в DTO
func toCreditResponse(credit *models.Credit) *CreditResponseDTO {
	products := make([]CreditProductResponseDTO, len(credit.Products))
	for i, item := range credit.Products {
		products[i] = toCreditProductDTO(item)
	}
	payments := make([]PaymentDTO, len(credit.Payments))
	for i, payment := range credit.Payments {
		payments[i] = toPaymentDTO(payment)
	}

	return &CreditResponseDTO{
		ID:               credit.ID,
		Description:      credit.Description,
		TotalAmount:      credit.TotalAmount.StringFixed(2),
		NoInstallment:    credit.NoInstallment,
		ApplicationDate:  formatDate(credit.ApplicationDate),
		StartDate:        formatDatePtr(credit.StartDate),
		EndDate:          formatDatePtr(credit.EndDate),
		PenaltyRate:      credit.PenaltyRate.StringFixed(2),
		Status:           credit.Status,
		InterestRate:     credit.InterestRateID,
		InterestRateInfo: InterestRateInfoDTO{Percentage: credit.InterestRate.Percentage.StringFixed(2)},
		Client:           credit.ClientID,
		ClientInfo: ClientInfoDTO{
			ID:        credit.Client.ID,
			FirstName: credit.Client.FirstName,
			LastName:  credit.Client.LastName,
			Email:     credit.Client.Email,
			Phone:     credit.Client.Phone,
		},
		Products: products,
		Payments: payments,
	}
}

// Create создает кредит в статусе pending вместе с позициями.
// Все проверки выполняются до первой записи в базу.
func (s *CreditService) Create(ctx context.Context, dto CreateCreditDTO) (*CreditResponseDTO, error) {
	startTime := time.Now()

	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	if len(dto.Products) == 0 {
		return nil, &ValidationError{Field: "products", Message: "There must be at least one product."}
	}

	credit := &models.Credit{
		Description:     dto.Description,
		NoInstallment:   dto.NoInstallment,
		PenaltyRate:     dto.PenaltyRate,
		InterestRateID:  dto.InterestRateID,
		ClientID:        dto.ClientID,
		ApplicationDate: s.today(),
		Status:          models.CreditStatusPending,
	}
	if err := credit.Validate(); err != nil {
		return nil, fromModelError(err)
	}

	// Товар может входить в кредит только одной позицией
	seen := make(map[uint]struct{}, len(dto.Products))
	ids := make([]uint, 0, len(dto.Products))
	for _, item := range dto.Products {
		if _, ok := seen[item.ProductID]; ok {
			return nil, &IntegrityError{Message: fmt.Sprintf("The product %d is already part of this credit.", item.ProductID)}
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	db := s.db.WithContext(ctx)

	var products []models.Product
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var inactive []string
	for _, item := range dto.Products {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, &ValidationError{Field: "products", Message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", item.ProductID)}
		}
		if !product.IsActive {
			inactive = append(inactive, product.Name)
		}
	}
	if len(inactive) > 0 {
		return nil, &ValidationError{
			Field:   "products",
			Message: "The following products are inactive and cannot be added to credit: " + strings.Join(inactive, "\n"),
		}
	}

	var client models.Client
	if err := db.First(&client, "id = ?", dto.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "client", Message: fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", dto.ClientID)}
		}
		return nil, err
	}

	var rate models.InterestRate
	if err := db.First(&rate, dto.InterestRateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "interest_rate", Message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", dto.InterestRateID)}
		}
		return nil, err
	}

	if !client.IsActive {
		return nil, NewValidationError("The client is inactive and cannot create a credit")
	}

	items := make([]models.ClientCreditProduct, len(dto.Products))
	for i, item := range dto.Products {
		items[i] = models.ClientCreditProduct{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   byID[item.ProductID],
		}
	}
	credit.Products = items
	credit.TotalAmount = credit.CalculateTotalAmount()

	// Сумма должна помещаться в decimal(11,2)
	if err := models.ValidateDigits("total_amount", credit.TotalAmount, 11, 2); err != nil {
		return nil, fromModelError(err)
	}

	// Начинаем транзакцию
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Omit(clause.Associations).Create(credit).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for i := range items {
		items[i].CreditID = credit.ID
	}
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	utils.LogOperation("credit.create", startTime, nil)
	s.metrics.RecordCreditCreated()

	credit.Client = client
	credit.InterestRate = rate
	credit.Payments = nil
	return toCreditResponse(credit), nil
}

// Update - общая точка входа PUT/PATCH: выполняет переход статуса, остальные поля не меняются
func (s *CreditService) Update(ctx context.Context, id uint, dto UpdateCreditDTO) (*CreditResponseDTO, error) {
	var err error
	switch dto.Status {
	case models.CreditStatusApproved:
		err = s.Approve(ctx, ApproveCredit{CreditID: id})
	case models.CreditStatusRejected:
		err = s.Reject(ctx, RejectCredit{CreditID: id})
	default:
		err = s.ensureExists(ctx, id)
		if err == nil {
			err = NewValidationError(MsgCreditLocked)
		}
	}
	if err != nil {
		return nil, wrapUpdateError("Error updating credit", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CreditService) ensureExists(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Credit{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("credit", id)
	}
	return nil
}

// lockCredit блокирует строку кредита до конца транзакции
func lockCredit(tx *gorm.DB, id uint) (*models.Credit, error) {
	var credit models.Credit
	if err := tx.Scopes(models.LockForUpdate).First(&credit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("credit", id)
		}
		return nil, err
	}
	return &credit, nil
}

// Approve одобряет кредит и создает график платежей одной транзакцией
func (s *CreditService) Approve(ctx context.Context, cmd ApproveCredit) error {
	startTime := time.Now()

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	credit, err := lockCredit(tx, cmd.CreditID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if credit.Status != models.CreditStatusPending {
		tx.Rollback()
		return NewValidationError(MsgCreditLocked)
	}

	var existing int64
	if err := tx.Model(&models.Payment{}).Where("credit_id = ?", credit.ID).Count(&existing).Error; err != nil {
		tx.Rollback()
		return err
	}
	if existing > 0 {
		tx.Rollback()
		return NewValidationError("The credit already has a payment schedule.")
	}

	schedule, err := GenerateSchedule(credit.ID, credit.TotalAmount, credit.NoInstallment, s.today())
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Omit(clause.Associations).CreateInBatches(schedule.Payments, 500).Error; err != nil {
		tx.Rollback()
		return err
	}

	err = tx.Model(credit).Updates(map[string]interface{}{
		"status":     models.CreditStatusApproved,
		"start_date": schedule.StartDate,
		"end_date":   schedule.EndDate,
	}).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	var client models.Client
	if err := tx.First(&client, "id = ?", credit.ClientID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	utils.LogOperation("credit.approve", startTime, nil)
	s.metrics.RecordCreditTransition(string(models.CreditStatusApproved))

	credit.Status = models.CreditStatusApproved
	credit.StartDate = &schedule.StartDate
	credit.EndDate = &schedule.EndDate
	credit.Client = client
	if err := s.notifier.CreditApproved(credit, schedule); err != nil {
		utils.LogError("не удалось отправить уведомление об одобрении кредита %d: %v", credit.ID, err)
	}
	return nil
}

// Reject отклоняет кредит, находящийся на рассмотрении
func (s *CreditService) Reject(ctx context.Context, cmd RejectCredit) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	credit, err := lockCredit(tx, cmd.CreditID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if credit.Status != models.CreditStatusPending {
		tx.Rollback()
		return NewValidationError(MsgCreditLocked)
	}

	if err := tx.Model(credit).Update("status", models.CreditStatusRejected).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	utils.LogInfo("кредит %d отклонен", credit.ID)
	s.metrics.RecordCreditTransition(string(models.CreditStatusRejected))
	return nil
}

// GetByID возвращает кредит по ID
func (s *CreditService) GetByID(ctx context.Context, id uint) (*CreditResponseDTO, error) {
	var credit models.Credit
	if err := s.db.WithContext(ctx).Scopes(preloadCredit).First(&credit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("credit", id)
		}
		return nil, err
	}
	return toCreditResponse(&credit), nil
}

// List возвращает страницу кредитов, упорядоченных по ID
func (s *CreditService) List(ctx context.Context, params ListParams) (Page[CreditResponseDTO], error) {
	params = params.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Credit{})
	if params.Search != "" {
		pattern := likePattern(strings.ToLower(params.Search))
		query = query.Where("LOWER(description) LIKE ? OR LOWER(client_id) LIKE ? OR LOWER(status) LIKE ?", pattern, pattern, pattern)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[CreditResponseDTO]{}, err
	}

	var credits []models.Credit
	if err := query.Scopes(preloadCredit, params.Paginate).Order("credits.id ASC").Find(&credits).Error; err != nil {
		return Page[CreditResponseDTO]{}, err
	}

	results := make([]CreditResponseDTO, len(credits))
	for i := range credits {
		results[i] = *toCreditResponse(&credits[i])
	}
	return newPage(results, total, params), nil
}

// ListByClient возвращает все кредиты клиента
func (s *CreditService) ListByClient(ctx context.Context, clientID string) ([]CreditResponseDTO, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Client{}).Where("id = ?", clientID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, NewValidationError("Client not found")
	}

	var credits []models.Credit
	if err := db.Scopes(preloadCredit).Where("client_id = ?", clientID).Order("id ASC").Find(&credits).Error; err != nil {
		return nil, err
	}

	results := make([]CreditResponseDTO, len(credits))
	for i := range credits {
		results[i] = *toCreditResponse(&credits[i])
	}
	return results, nil
}

// CalculateTotalAmount пересчитывает сумму кредита по текущим ценам, ничего не сохраняя
func (s *CreditService) CalculateTotalAmount(ctx context.Context, id uint) (*CreditTotalDTO, error) {
	var credit models.Credit
	err := s.db.WithContext(ctx).Preload("Products.Product").First(&credit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("credit", id)
		}
		return nil, err
	}
	return &CreditTotalDTO{
		CreditID:    credit.ID,
		TotalAmount: credit.CalculateTotalAmount().StringFixed(2),
	}, nil
}

// Delete удаляет кредит без позиций и платежей
func (s *CreditService) Delete(ctx context.Context, id uint) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	credit, err := lockCredit(tx, id)
	if err != nil {
		tx.Rollback()
		return err
	}

	var items, payments int64
	if err := tx.Model(&models.ClientCreditProduct{}).Where("credit_id = ?", id).Count(&items).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&models.Payment{}).Where("credit_id = ?", id).Count(&payments).Error; err != nil {
		tx.Rollback()
		return err
	}
	if items > 0 || payments > 0 {
		tx.Rollback()
		return &IntegrityError{Message: "Cannot delete the credit because it is referenced by its products or payments."}
	}

	if err := tx.Delete(credit).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// ListLineItems возвращает позиции кредитов, при необходимости только одного кредита
func (s *CreditService) ListLineItems(ctx context.Context, creditID uint, params ListParams) (Page[CreditProductResponseDTO], error) {
	params = params.Normalize()
	query := s.db.WithContext(ctx).Model(&models.ClientCreditProduct{})
	if creditID != 0 {
		query = query.Where("credit_id = ?", creditID)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[CreditProductResponseDTO]{}, err
	}

	var items []models.ClientCreditProduct
	if err := query.Preload("Product").Scopes(params.Paginate).Order("id ASC").Find(&items).Error; err != nil {
		return Page[CreditProductResponseDTO]{}, err
	}

	results := make([]CreditProductResponseDTO, len(items))
	for i, item := range items {
		results[i] = toCreditProductDTO(item)
	}
	return newPage(results, total, params), nil
}

// sortedPayments упорядочивает платежи по плановой дате
func sortedPayments(payments []models.Payment) []models.Payment {
	out := append([]models.Payment(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaymentDate.Before(out[j].PaymentDate)
	})
	return out
}
