package services_test

import (
	"testing"

	"courier/internal/models"
	"courier/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		held     []models.RoleName
		required []models.RoleName
		allowed  bool
	}{
		{"user on user set", []models.RoleName{models.RoleUser}, services.RoleSetUser, true},
		{"admin only on user set", []models.RoleName{models.RoleAdmin}, services.RoleSetUser, false},
		{"god only on user set", []models.RoleName{models.RoleGod}, services.RoleSetUser, false},
		{"user on privileged set", []models.RoleName{models.RoleUser}, services.RoleSetPrivileged, false},
		{"admin on privileged set", []models.RoleName{models.RoleUser, models.RoleAdmin}, services.RoleSetPrivileged, true},
		{"god on privileged set", []models.RoleName{models.RoleGod}, services.RoleSetPrivileged, true},
		{"god on anyone set", []models.RoleName{models.RoleGod}, services.RoleSetAnyone, true},
		{"no roles", nil, services.RoleSetAnyone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &services.Principal{UserID: 1, Username: "alice", Roles: tt.held}
			err := services.Authorize(p, tt.required...)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, services.ErrForbidden)
			}
		})
	}
}

func TestAuthorize_NilPrincipal(t *testing.T) {
	err := services.Authorize(nil, services.RoleSetAnyone...)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestNewPrincipal(t *testing.T) {
	u := &models.User{
		ID:       7,
		Name:     "Alice",
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    []models.Role{{ID: 1, Name: models.RoleUser}, {ID: 3, Name: models.RoleGod}},
	}
	p := services.NewPrincipal(u)
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, []models.RoleName{models.RoleUser, models.RoleGod}, p.Roles)
	assert.True(t, p.HasAnyRole(models.RoleAdmin, models.RoleGod))
}
