package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType классифицирует товары каталога
type ProductType struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Description string `gorm:"column:description;not null;size:100" json:"description"`
}

// TableName возвращает имя таблицы для модели ProductType
func (ProductType) TableName() string {
	return "product_types"
}

// Product представляет товар, который может быть приобретен в кредит
type Product struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"column:name;not null;size:100" json:"name"`
	Description   string          `gorm:"column:description;size:255" json:"description"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(11,2);not null" json:"price"`
	IsActive      bool            `gorm:"column:is_active;not null" json:"is_active"`
	ProductTypeID uint            `gorm:"column:product_type_id;not null;index" json:"product_type"`
	ProductType   ProductType     `gorm:"foreignKey:ProductTypeID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// TableName возвращает имя таблицы для модели Product
func (Product) TableName() string {
	return "products"
}

// Validate проверяет цену товара
func (p *Product) Validate() error {
	return validateAll(
		ValidateNonNegative("price", p.Price),
		ValidateDigits("price", p.Price, 11, 2),
	)
}
