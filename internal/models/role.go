package models

// RoleName is one of the closed set of role labels.
type RoleName string

const (
	RoleUser  RoleName = "USER"
	RoleAdmin RoleName = "ADMIN"
	RoleGod   RoleName = "GOD"
)

// DefaultRoles lists every role in seeding order.
var DefaultRoles = []RoleName{RoleUser, RoleAdmin, RoleGod}

// Role is a privilege label that can be granted to users.
type Role struct {
	ID   int64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name RoleName `json:"name" gorm:"uniqueIndex;type:varchar(20);not null"`
}
