// Package authz decides whether an authenticated (or anonymous) caller may
// perform an action on a target resource.
package authz

import (
	"pizza-service/apperrors"
	"pizza-service/models"
)

type Action string

const (
	ActionRegister        Action = "auth.register"
	ActionLogin           Action = "auth.login"
	ActionLogout          Action = "auth.logout"
	ActionListFranchises  Action = "franchise.list"
	ActionUserFranchises  Action = "franchise.list_for_user"
	ActionCreateFranchise Action = "franchise.create"
	ActionDeleteFranchise Action = "franchise.delete"
	ActionCreateStore     Action = "store.create"
	ActionDeleteStore     Action = "store.delete"
	ActionReadMenu        Action = "menu.read"
	ActionUpdateMenu      Action = "menu.update"
	ActionListOrders      Action = "order.list"
	ActionCreateOrder     Action = "order.create"
	ActionReadSelf        Action = "user.me"
	ActionUpdateUser      Action = "user.update"
	ActionDeleteUser      Action = "user.delete"
	ActionListUsers       Action = "user.list"
)

// Identity is the authenticated caller. A nil *Identity is anonymous.
type Identity struct {
	UserID uint
	Roles  []models.Role
}

// Target describes the resource an action applies to. Only the fields
// relevant to the action are read.
type Target struct {
	UserID uint

	FranchiseID     uint
	FranchiseExists bool
	// FranchiseAdminIDs are the users listed as admins of FranchiseID.
	FranchiseAdminIDs []uint
}

var publicActions = map[Action]bool{
	ActionRegister:       true,
	ActionLogin:          true,
	ActionListFranchises: true,
	ActionReadMenu:       true,
}

// Authorize returns nil when the action is allowed, otherwise an
// Unauthenticated or Forbidden *apperrors.Error.
func Authorize(id *Identity, action Action, target Target) error {
	if publicActions[action] {
		return nil
	}
	if id == nil {
		return apperrors.Unauthenticated(nil)
	}

	switch action {
	case ActionLogout, ActionListOrders, ActionCreateOrder, ActionReadSelf, ActionListUsers:
		return nil
	case ActionUpdateUser, ActionDeleteUser, ActionUserFranchises:
		if id.UserID == target.UserID || id.isAdmin() {
			return nil
		}
		return apperrors.Forbidden("unauthorized")
	case ActionCreateFranchise:
		if id.isAdmin() {
			return nil
		}
		return apperrors.Forbidden("unable to create a franchise")
	case ActionDeleteFranchise:
		if id.isAdmin() {
			return nil
		}
		return apperrors.Forbidden("unable to delete a franchise")
	case ActionCreateStore:
		if target.FranchiseExists && id.canManageFranchise(target) {
			return nil
		}
		return apperrors.Forbidden("unable to create a store")
	case ActionDeleteStore:
		if target.FranchiseExists && id.canManageFranchise(target) {
			return nil
		}
		return apperrors.Forbidden("unable to delete a store")
	case ActionUpdateMenu:
		if id.isAdmin() {
			return nil
		}
		return apperrors.Forbidden("unable to add menu item")
	default:
		return apperrors.Forbidden("unauthorized")
	}
}

func (id *Identity) isAdmin() bool {
	for _, r := range id.Roles {
		if r.Kind == models.RoleAdmin {
			return true
		}
	}
	return false
}

func (id *Identity) canManageFranchise(target Target) bool {
	for _, r := range id.Roles {
		switch r.Kind {
		case models.RoleAdmin:
			return true
		case models.RoleFranchisee:
			if r.ObjectID == target.FranchiseID {
				return true
			}
		case models.RoleDiner:
		}
	}
	for _, adminID := range target.FranchiseAdminIDs {
		if adminID == id.UserID {
			return true
		}
	}
	return false
}
