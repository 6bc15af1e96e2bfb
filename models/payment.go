package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// PaymentStatus представляет статус платежа
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // Ожидает оплаты
	PaymentStatusCompleted PaymentStatus = "completed" // Оплачен
)

var lockingClause = clause.Locking{Strength: "UPDATE"}

// Payment представляет взнос по кредиту
type Payment struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"`
	PaymentAmount decimal.Decimal `gorm:"column:payment_amount;type:decimal(11,2);not null"`
	PaymentDate   time.Time       `gorm:"column:payment_date;type:date;not null"` // Плановая дата платежа
	DueDate       time.Time       `gorm:"column:due_date;type:date;not null"`     // Крайний срок оплаты
	Status        PaymentStatus   `gorm:"column:status;type:varchar(15);not null"`
	CreditID      uint            `gorm:"column:credit_id;not null;index"`
	Credit        Credit          `gorm:"foreignKey:CreditID;constraint:OnDelete:RESTRICT"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName возвращает имя таблицы для модели Payment
func (Payment) TableName() string {
	return "payments"
}
