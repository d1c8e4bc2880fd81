package repositories

import (
	"errors"
	"fmt"

	"courier/internal/models"

	"gorm.io/gorm"
)

// GORMRoleRepository is a GORM implementation of RoleRepository.
type GORMRoleRepository struct {
	db *gorm.DB
}

// NewGORMRoleRepository creates a new instance of GORMRoleRepository.
func NewGORMRoleRepository(db *gorm.DB) *GORMRoleRepository {
	return &GORMRoleRepository{db: db}
}

// GetByID retrieves a role by its ID.
func (r *GORMRoleRepository) GetByID(id int64) (*models.Role, error) {
	var role models.Role
	if err := r.db.First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get role by ID %d: %w", id, err)
	}
	return &role, nil
}

// GetByName retrieves a role by its name.
func (r *GORMRoleRepository) GetByName(name models.RoleName) (*models.Role, error) {
	var role models.Role
	if err := r.db.First(&role, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get role %s: %w", name, err)
	}
	return &role, nil
}

// GetAll retrieves every role ordered by id.
func (r *GORMRoleRepository) GetAll() ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to get all roles: %w", err)
	}
	return roles, nil
}

// EnsureDefaults creates any of the default roles that are missing.
func (r *GORMRoleRepository) EnsureDefaults() error {
	for _, name := range models.DefaultRoles {
		role := models.Role{Name: name}
		if err := r.db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
	}
	return nil
}
