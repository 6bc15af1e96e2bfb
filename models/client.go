package models

import (
	"time"
)

// Client представляет клиента, которому оформляются кредиты.
// ID - номер документа клиента, а не суррогатный ключ.
type Client struct {
	ID        string    `gorm:"primaryKey;size:20" json:"id"`
	FirstName string    `gorm:"column:first_name;not null;size:50" json:"first_name"`
	LastName  string    `gorm:"column:last_name;not null;size:50" json:"last_name"`
	Email     string    `gorm:"column:email;not null;size:100" json:"email"`
	Phone     string    `gorm:"column:phone;size:20" json:"phone"`
	Address   string    `gorm:"column:address;size:100" json:"address"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName возвращает имя таблицы для модели Client
func (Client) TableName() string {
	return "clients"
}

func (c Client) String() string {
	return c.FirstName + " " + c.LastName
}
