package models

import (
	"github.com/shopspring/decimal"
)

// InterestRate - процентная ставка, которая назначается кредиту
type InterestRate struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:decimal(4,2);not null" json:"percentage"`
}

// TableName возвращает имя таблицы для модели InterestRate
func (InterestRate) TableName() string {
	return "interest_rates"
}

// Validate проверяет значение ставки
func (r *InterestRate) Validate() error {
	return validateAll(
		ValidateNonNegative("percentage", r.Percentage),
		ValidateDigits("percentage", r.Percentage, 4, 2),
	)
}

func (r InterestRate) String() string {
	return r.Percentage.StringFixed(2)
}
