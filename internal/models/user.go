package models

import "time"

// User represents a customer account of the store.
type User struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username    string     `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	Email       string     `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	FirstName   string     `json:"first_name" gorm:"type:varchar(50)" validate:"required,max=50"`
	LastName    string     `json:"last_name" gorm:"type:varchar(50)" validate:"required,max=50"`
	PhoneNumber string     `json:"phone_number" gorm:"type:varchar(50)" validate:"omitempty,max=50"`
	Password    string     `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
