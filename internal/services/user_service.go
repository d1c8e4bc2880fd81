package services

import (
	"errors"
	"fmt"

	"courier/internal/models"
	"courier/internal/repositories"

	"go.uber.org/zap"
)

// UserService handles user listing and role administration.
type UserService struct {
	userRepo repositories.UserRepository
	roleRepo repositories.RoleRepository
	audit    *Auditor
	log      *zap.Logger
}

// NewUserService creates a new UserService. audit may be nil.
func NewUserService(userRepo repositories.UserRepository, roleRepo repositories.RoleRepository, audit *Auditor, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		audit:    audit,
		log:      log,
	}
}

// ListUsers returns the username of every user.
func (s *UserService) ListUsers(p *Principal) ([]string, error) {
	if err := Authorize(p, RoleSetUser...); err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names, nil
}

// GetSelf describes the principal.
func (s *UserService) GetSelf(p *Principal) (*models.UserInfo, error) {
	if err := Authorize(p, RoleSetUser...); err != nil {
		return nil, err
	}
	return &models.UserInfo{
		Name:     p.Name,
		Username: p.Username,
		Email:    p.Email,
		Roles:    append([]models.RoleName(nil), p.Roles...),
	}, nil
}

// ListUsersWithRoles returns every user with its role names.
func (s *UserService) ListUsersWithRoles(p *Principal) ([]models.UserInfo, error) {
	if err := Authorize(p, RoleSetPrivileged...); err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, models.UserInfo{
			ID:       users[i].ID,
			Name:     users[i].Name,
			Username: users[i].Username,
			Email:    users[i].Email,
			Roles:    users[i].RoleNames(),
		})
	}
	return infos, nil
}

// AddRole grants a role to a user. Granting a held role is a no-op.
func (s *UserService) AddRole(p *Principal, req *models.RoleAssignment) error {
	return s.changeRole(p, req, AuditRoleAdded, func(user *models.User, role *models.Role) bool {
		if user.HasRole(role.Name) {
			return false
		}
		user.Roles = append(user.Roles, *role)
		return true
	})
}

// RemoveRole revokes a role from a user. Revoking an absent role is a no-op.
func (s *UserService) RemoveRole(p *Principal, req *models.RoleAssignment) error {
	return s.changeRole(p, req, AuditRoleRemoved, func(user *models.User, role *models.Role) bool {
		kept := user.Roles[:0]
		for _, r := range user.Roles {
			if r.ID != role.ID {
				kept = append(kept, r)
			}
		}
		changed := len(kept) != len(user.Roles)
		user.Roles = kept
		return changed
	})
}

// changeRole validates the request, resolves both records, applies mutate
// and persists the user.
func (s *UserService) changeRole(p *Principal, req *models.RoleAssignment, action string, mutate func(*models.User, *models.Role) bool) error {
	if err := Authorize(p, RoleSetPrivileged...); err != nil {
		return err
	}
	if req == nil || req.UserID <= 0 || req.RoleID <= 0 {
		return fmt.Errorf("%w: wrong body", ErrInvalidRequest)
	}

	user, err := s.userRepo.GetByID(req.UserID)
	if err != nil {
		return notFoundOr("user", err)
	}
	role, err := s.roleRepo.GetByID(req.RoleID)
	if err != nil {
		return notFoundOr("role", err)
	}

	if !mutate(user, role) {
		s.log.Debug("role change is a no-op",
			zap.String("action", action), zap.Int64("user_id", user.ID), zap.String("role", string(role.Name)))
	}
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	s.audit.record(p, action, fmt.Sprintf("%s:%s", user.Username, role.Name))
	return nil
}

func notFoundOr(what string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	}
	return fmt.Errorf("%w: %v", ErrStoreFailure, err)
}
