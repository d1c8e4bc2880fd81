package services

import (
	"fmt"

	"courier/internal/models"
)

// Required role sets. A principal passes when it holds at least one role of
// the set.
var (
	RoleSetUser       = []models.RoleName{models.RoleUser}
	RoleSetAnyone     = []models.RoleName{models.RoleUser, models.RoleAdmin, models.RoleGod}
	RoleSetPrivileged = []models.RoleName{models.RoleAdmin, models.RoleGod}
)

// Principal is the authenticated identity behind a request.
type Principal struct {
	UserID   int64
	Username string
	Name     string
	Email    string
	Roles    []models.RoleName
}

// NewPrincipal builds a principal from a directory record.
func NewPrincipal(u *models.User) *Principal {
	return &Principal{
		UserID:   u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Roles:    u.RoleNames(),
	}
}

// HasAnyRole reports whether the principal holds any of the given roles.
func (p *Principal) HasAnyRole(required ...models.RoleName) bool {
	if p == nil {
		return false
	}
	for _, held := range p.Roles {
		for _, want := range required {
			if held == want {
				return true
			}
		}
	}
	return false
}

// Authorize fails with ErrForbidden unless p holds at least one of the
// required roles.
func Authorize(p *Principal, required ...models.RoleName) error {
	if p.HasAnyRole(required...) {
		return nil
	}
	if p == nil {
		return fmt.Errorf("%w: no principal", ErrForbidden)
	}
	return fmt.Errorf("%w: %s requires one of %v", ErrForbidden, p.Username, required)
}
