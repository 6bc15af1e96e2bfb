package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreditStatus представляет статус кредита
type CreditStatus string

const (
	CreditStatusPending  CreditStatus = "pending"
	CreditStatusApproved CreditStatus = "approved"
	CreditStatusRejected CreditStatus = "rejected"
	CreditStatusPaid     CreditStatus = "paid"
)

// MaxInstallments - верхняя граница числа взносов (smallint)
const MaxInstallments = 32767

// Credit представляет кредит клиента на покупку товаров
type Credit struct {
	ID              uint                  `gorm:"primaryKey;autoIncrement"`
	Description     string                `gorm:"column:description;not null;size:50"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:decimal(11,2);not null;default:0"`
	NoInstallment   int                   `gorm:"column:no_installment;not null"`
	ApplicationDate time.Time             `gorm:"column:application_date;type:date;not null"`
	StartDate       *time.Time            `gorm:"column:start_date;type:date"`
	EndDate         *time.Time            `gorm:"column:end_date;type:date"`
	PenaltyRate     decimal.Decimal       `gorm:"column:penalty_rate;type:decimal(4,2);not null"`
	Status          CreditStatus          `gorm:"column:status;type:varchar(15);not null"`
	InterestRateID  uint                  `gorm:"column:interest_rate_id;not null;index"`
	InterestRate    InterestRate          `gorm:"foreignKey:InterestRateID;constraint:OnDelete:RESTRICT"`
	ClientID        string                `gorm:"column:client_id;not null;size:20;index"`
	Client          Client                `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT"`
	Products        []ClientCreditProduct `gorm:"foreignKey:CreditID"`
	Payments        []Payment             `gorm:"foreignKey:CreditID"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName возвращает имя таблицы для модели Credit
func (Credit) TableName() string {
	return "credits"
}

func (c Credit) String() string {
	return c.Description + " - " + c.Client.String()
}

// CalculateTotalAmount суммирует price * quantity по загруженным позициям кредита.
// Позиции должны быть загружены вместе с товарами (Preload("Products.Product")).
func (c *Credit) CalculateTotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Products {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Validate проверяет поля кредита, которые задает оператор
func (c *Credit) Validate() error {
	if c.Description == "" {
		return &FieldError{Field: "description", Message: "This field may not be blank."}
	}
	if len([]rune(c.Description)) > 50 {
		return &FieldError{Field: "description", Message: "Ensure this field has no more than 50 characters."}
	}
	if c.NoInstallment < 1 || c.NoInstallment > MaxInstallments {
		return &FieldError{Field: "no_installment", Message: "Ensure this value is between 1 and 32767."}
	}
	return validateAll(
		ValidateNonNegative("penalty_rate", c.PenaltyRate),
		ValidateDigits("penalty_rate", c.PenaltyRate, 4, 2),
	)
}

// ClientCreditProduct - позиция кредита: товар и его количество
type ClientCreditProduct struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	CreditID  uint    `gorm:"column:credit_id;not null;uniqueIndex:unique_client_credit_product" json:"credit"`
	Credit    Credit  `gorm:"foreignKey:CreditID;constraint:OnDelete:RESTRICT" json:"-"`
	ProductID uint    `gorm:"column:product_id;not null;uniqueIndex:unique_client_credit_product;index" json:"product"`
	Product   Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product_info"`
	Quantity  int     `gorm:"column:quantity;not null" json:"quantity"`
}

// TableName возвращает имя таблицы для модели ClientCreditProduct
func (ClientCreditProduct) TableName() string {
	return "client_credit_products"
}

// Subtotal возвращает стоимость позиции по текущей цене товара
func (i ClientCreditProduct) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LockForUpdate - область видимости GORM для блокировки строк до конца транзакции
func LockForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(lockingClause)
}
