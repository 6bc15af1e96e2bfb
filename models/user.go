package models

import (
	"time"
)

// User - сотрудник бэк-офиса, работающий с API
type User struct {
	ID          string     `gorm:"primaryKey;size:20" json:"id"`
	FirstName   string     `gorm:"column:first_name;not null;size:50" json:"first_name"`
	LastName    string     `gorm:"column:last_name;not null;size:50" json:"last_name"`
	Email       string     `gorm:"column:email;uniqueIndex;not null;size:100" json:"email"`
	Phone       string     `gorm:"column:phone;size:20" json:"phone"`
	Address     string     `gorm:"column:address;size:100" json:"address"`
	Password    string     `gorm:"column:password;not null;size:128" json:"-"`
	DateJoined  time.Time  `gorm:"column:date_joined;not null" json:"date_joined"`
	LastLogin   *time.Time `gorm:"column:last_login" json:"last_login"`
	IsActive    bool       `gorm:"column:is_active;not null" json:"is_active"`
	IsStaff     bool       `gorm:"column:is_staff;not null" json:"is_staff"`
	IsSuperuser bool       `gorm:"column:is_superuser;not null" json:"is_superuser"`
	Groups      []Group    `gorm:"many2many:user_groups;" json:"groups"`
}

func (User) TableName() string {
	return "users"
}

func (u User) String() string {
	return u.ID + " - " + u.FirstName + " " + u.LastName
}
