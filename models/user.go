package models

import (
	"fmt"
	"time"
)

// UserRole is the closed set of role kinds a user can hold
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleDiner      UserRole = "diner"
	RoleFranchisee UserRole = "franchisee"
)

// Role is a single role assignment. Franchisee roles are scoped to the
// franchise in ObjectID; the other kinds never carry one.
type Role struct {
	ID       uint     `json:"-" gorm:"primaryKey"`
	UserID   uint     `json:"-" gorm:"not null;index"`
	Kind     UserRole `json:"role" gorm:"column:role;not null"`
	ObjectID uint     `json:"objectId,omitempty" gorm:"index"`
}

func AdminRole() Role { return Role{Kind: RoleAdmin} }
func DinerRole() Role { return Role{Kind: RoleDiner} }

func FranchiseeRole(franchiseID uint) Role {
	return Role{Kind: RoleFranchisee, ObjectID: franchiseID}
}

// Validate rejects role kinds outside the enumeration and scoping mistakes
func (r Role) Validate() error {
	switch r.Kind {
	case RoleAdmin, RoleDiner:
		if r.ObjectID != 0 {
			return fmt.Errorf("role %q cannot be scoped to an object", r.Kind)
		}
		return nil
	case RoleFranchisee:
		if r.ObjectID == 0 {
			return fmt.Errorf("franchisee role requires a franchise id")
		}
		return nil
	default:
		return fmt.Errorf("unknown role %q", r.Kind)
	}
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Roles        []Role    `json:"roles" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r.Kind == RoleAdmin {
			return true
		}
	}
	return false
}

// Session is one issued token that is still allowed to authenticate
type Session struct {
	ID        string     `gorm:"primaryKey"` // jwt id
	UserID    uint       `gorm:"not null;index"`
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time
}
