package repositories

import "courier/internal/models"

// RoleRepository defines the interface for role data access.
type RoleRepository interface {
	GetByID(id int64) (*models.Role, error)
	GetByName(name models.RoleName) (*models.Role, error)
	GetAll() ([]models.Role, error)
	EnsureDefaults() error
}
