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
	"gorm.io/gorm/clause"
)

// CompletePayment - команда отметки взноса оплаченным
type CompletePayment struct {
	PaymentID uint
}

// UpdatePaymentDTO - запрос на изменение платежа; учитывается только статус
type UpdatePaymentDTO struct {
	Status models.PaymentStatus `json:"status"`
}

// CreatePaymentDTO - дополнительный взнос по одобренному кредиту
type CreatePaymentDTO struct {
	CreditID      uint            `json:"credit" validate:"required"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaymentDate   string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	DueDate       string          `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// PaymentFilter - фильтры списка платежей
type PaymentFilter struct {
	CreditID uint
	Status   models.PaymentStatus
}

// PaymentService предоставляет методы для работы с платежами
type PaymentService struct {
	db        *gorm.DB
	validator *validator.Validate
	notifier  Notifier
	metrics   *utils.Metrics
}

// NewPaymentService создает новый экземпляр PaymentService
func NewPaymentService(db *gorm.DB, notifier Notifier) *PaymentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PaymentService{
		db:        db,
		validator: newValidator(),
		notifier:  notifier,
		metrics:   utils.GetMetrics(),
	}
}

// Complete отмечает взнос оплаченным. Если после этого по одобренному кредиту
// не осталось неоплаченных взносов, кредит переводится в статус paid в той же транзакции.
// Блокировки берутся в порядке кредит, затем платеж.
func (s *PaymentService) Complete(ctx context.Context, cmd CompletePayment) error {
	startTime := time.Now()

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	// Находим кредит платежа без блокировки, чтобы соблюсти порядок блокировок
	var creditIDs []uint
	if err := tx.Model(&models.Payment{}).Where("id = ?", cmd.PaymentID).Pluck("credit_id", &creditIDs).Error; err != nil {
		tx.Rollback()
		return err
	}
	if len(creditIDs) == 0 {
		tx.Rollback()
		return notFound("payment", cmd.PaymentID)
	}

	credit, err := lockCredit(tx, creditIDs[0])
	if err != nil {
		tx.Rollback()
		return err
	}

	var payment models.Payment
	if err := tx.Scopes(models.LockForUpdate).First(&payment, cmd.PaymentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("payment", cmd.PaymentID)
		}
		return err
	}
	if payment.Status != models.PaymentStatusPending {
		tx.Rollback()
		return NewValidationError(MsgPaymentLocked)
	}

	if err := tx.Model(&payment).Update("status", models.PaymentStatusCompleted).Error; err != nil {
		tx.Rollback()
		return err
	}

	var remaining int64
	err = tx.Model(&models.Payment{}).
		Where("credit_id = ? AND status <> ?", credit.ID, models.PaymentStatusCompleted).
		Count(&remaining).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	paid := remaining == 0 && credit.Status == models.CreditStatusApproved
	if paid {
		if err := tx.Model(credit).Update("status", models.CreditStatusPaid).Error; err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.First(&credit.Client, "id = ?", credit.ClientID).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	utils.LogOperation("payment.complete", startTime, nil)
	s.metrics.RecordPaymentCompleted()

	if paid {
		credit.Status = models.CreditStatusPaid
		s.metrics.RecordCreditTransition(string(models.CreditStatusPaid))
		utils.LogInfo("кредит %d погашен", credit.ID)
		if err := s.notifier.CreditPaid(credit); err != nil {
			utils.LogError("не удалось отправить уведомление о погашении кредита %d: %v", credit.ID, err)
		}
	}
	return nil
}

// Update - общая точка входа PUT/PATCH: допускается только переход в completed
func (s *PaymentService) Update(ctx context.Context, id uint, dto UpdatePaymentDTO) (*PaymentDTO, error) {
	var err error
	if dto.Status == models.PaymentStatusCompleted {
		err = s.Complete(ctx, CompletePayment{PaymentID: id})
	} else {
		_, err = s.GetByID(ctx, id)
		if err == nil {
			err = NewValidationError(MsgPaymentLocked)
		}
	}
	if err != nil {
		return nil, wrapUpdateError("Error updating payment", err)
	}
	return s.GetByID(ctx, id)
}

// Create добавляет взнос к одобренному кредиту
func (s *PaymentService) Create(ctx context.Context, dto CreatePaymentDTO) (*PaymentDTO, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	if !dto.PaymentAmount.IsPositive() {
		return nil, &ValidationError{Field: "payment_amount", Message: "Ensure this value is greater than 0."}
	}
	if err := models.ValidateDigits("payment_amount", dto.PaymentAmount, 11, 2); err != nil {
		return nil, fromModelError(err)
	}

	paymentDate, err := parseDate("payment_date", dto.PaymentDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate("due_date", dto.DueDate)
	if err != nil {
		return nil, err
	}
	if dueDate.Before(paymentDate) {
		return nil, &ValidationError{Field: "due_date", Message: "The due date cannot be earlier than the payment date."}
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	credit, err := lockCredit(tx, dto.CreditID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, ErrNotFound) {
			return nil, &ValidationError{Field: "credit", Message: "Invalid pk - object does not exist."}
		}
		return nil, err
	}
	if credit.Status != models.CreditStatusApproved {
		tx.Rollback()
		return nil, NewValidationError("Payments can only be added to an approved credit.")
	}

	payment := models.Payment{
		CreditID:      credit.ID,
		PaymentAmount: dto.PaymentAmount,
		PaymentDate:   paymentDate,
		DueDate:       dueDate,
		Status:        models.PaymentStatusPending,
	}
	if err := tx.Omit(clause.Associations).Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	utils.LogInfo("к кредиту %d добавлен платеж %d", credit.ID, payment.ID)
	result := toPaymentDTO(payment)
	return &result, nil
}

// GetByID возвращает платеж по ID
func (s *PaymentService) GetByID(ctx context.Context, id uint) (*PaymentDTO, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("payment", id)
		}
		return nil, err
	}
	result := toPaymentDTO(payment)
	return &result, nil
}

// List возвращает страницу платежей с фильтрами по кредиту и статусу
func (s *PaymentService) List(ctx context.Context, filter PaymentFilter, params ListParams) (Page[PaymentDTO], error) {
	params = params.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Payment{})
	if filter.CreditID != 0 {
		query = query.Where("credit_id = ?", filter.CreditID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[PaymentDTO]{}, err
	}

	var payments []models.Payment
	if err := query.Scopes(params.Paginate).Order("payment_date ASC, id ASC").Find(&payments).Error; err != nil {
		return Page[PaymentDTO]{}, err
	}

	results := make([]PaymentDTO, len(payments))
	for i, payment := range payments {
		results[i] = toPaymentDTO(payment)
	}
	return newPage(results, total, params), nil
}
