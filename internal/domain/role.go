package domain

// Role names seeded by the roles migration
const (
	RoleAdministrator = "Administrator"
	RoleAcctg         = "Acctg"
	RoleUser          = "User"
)

// Permission is a CRUD capability granted to a role
type Permission string

const (
	PermissionCreate Permission = "create"
	PermissionRead   Permission = "read"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"
)

var rolePermissions = map[string][]Permission{
	RoleAdministrator: {PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete},
	RoleAcctg:         {PermissionCreate, PermissionRead, PermissionUpdate},
	RoleUser:          {PermissionRead},
}

// PermissionsFor returns the permissions granted to role; unknown roles get none
func PermissionsFor(role string) []Permission {
	return rolePermissions[role]
}

// HasPermission reports whether role grants p
func HasPermission(role string, p Permission) bool {
	for _, granted := range rolePermissions[role] {
		if granted == p {
			return true
		}
	}
	return false
}

// CanSettleOrders reports whether role may change an order's payment state
func CanSettleOrders(role string) bool {
	return role == RoleAcctg || role == RoleAdministrator
}
