package models

import "errors"

// UserRole is a closed variant: every caller is exactly one of these. Role
// checks must go through this type instead of comparing raw strings.
type UserRole string

const (
	UserRoleOwner    UserRole = "Owner"
	UserRoleEmployee UserRole = "Employee"
)

func ParseUserRole(s string) (UserRole, error) {
	switch s {
	case "Owner":
		return UserRoleOwner, nil
	case "Employee":
		return UserRoleEmployee, nil
	default:
		return "", errors.New("invalid user role")
	}
}

func (r UserRole) Valid() bool {
	return r == UserRoleOwner || r == UserRoleEmployee
}

func (r UserRole) IsOwner() bool {
	return r == UserRoleOwner
}
