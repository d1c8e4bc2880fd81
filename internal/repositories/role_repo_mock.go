package repositories

import (
	"fmt"
	"sort"
	"sync"

	"courier/internal/models"
)

// MockRoleRepository is an in-memory implementation of RoleRepository.
type MockRoleRepository struct {
	roles map[int64]models.Role
	mu    sync.RWMutex
}

// NewMockRoleRepository creates a MockRoleRepository holding the default
// roles with ids 1, 2 and 3.
func NewMockRoleRepository() *MockRoleRepository {
	r := &MockRoleRepository{roles: make(map[int64]models.Role)}
	_ = r.EnsureDefaults()
	return r
}

func (r *MockRoleRepository) GetByID(id int64) (*models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return nil, fmt.Errorf("role with ID %d: %w", id, ErrNotFound)
	}
	return &role, nil
}

func (r *MockRoleRepository) GetByName(name models.RoleName) (*models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, role := range r.roles {
		if role.Name == name {
			found := role
			return &found, nil
		}
	}
	return nil, fmt.Errorf("role %s: %w", name, ErrNotFound)
}

func (r *MockRoleRepository) GetAll() ([]models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roleList := make([]models.Role, 0, len(r.roles))
	for _, role := range r.roles {
		roleList = append(roleList, role)
	}
	sort.Slice(roleList, func(i, j int) bool { return roleList[i].ID < roleList[j].ID })
	return roleList, nil
}

func (r *MockRoleRepository) EnsureDefaults() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID int64
	present := make(map[models.RoleName]bool, len(r.roles))
	for id, role := range r.roles {
		present[role.Name] = true
		if id > maxID {
			maxID = id
		}
	}
	for _, name := range models.DefaultRoles {
		if present[name] {
			continue
		}
		maxID++
		r.roles[maxID] = models.Role{ID: maxID, Name: name}
	}
	return nil
}
