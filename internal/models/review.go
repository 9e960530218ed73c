package models

import "time"

// ReviewRating is a customer's review of a product; one per user and product.
type ReviewRating struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID string    `json:"product_id" gorm:"index;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"index;type:varchar(36)"`
	User      User      `json:"user" gorm:"foreignKey:UserID"`
	Subject   string    `json:"subject" gorm:"type:varchar(100)"`
	Review    string    `json:"review"`
	Rating    float64   `json:"rating"`
	IP        string    `json:"ip" gorm:"type:varchar(45)"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
