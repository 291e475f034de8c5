package utils

import (
	"strings"
)

// User roles issued by the auth service.
const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
	RoleStaff    = "staff"
)

var ValidUserRoles = map[string]bool{
	RoleAdmin:    true,
	RoleMerchant: true,
	RoleStaff:    true,
}

// NormalizeRole trims and lowercases a role claim and reports whether it is
// one of the known roles.
func NormalizeRole(role string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	return normalized, ValidUserRoles[normalized]
}
