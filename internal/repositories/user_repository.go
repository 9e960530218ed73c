package repositories

import "shopfusion/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	// LockByID locks the user's row until the surrounding transaction ends.
	LockByID(id string) (*models.User, error)
	UpdateProfile(user *models.User) error
	UpdatePassword(id, passwordHash string) error
	Activate(id string) error
	TouchLogin(id string) error
}
