package repositories

import "courier/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id int64) (*models.User, error)
	GetAll() ([]models.User, error)
	// Update persists the user's fields and replaces its role set.
	Update(user *models.User) error
}
