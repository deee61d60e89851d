// internal/domain/models/roles.go
package models

const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleTrainee    = "trainee"
)

// AllRoles lists every principal role in display order.
var AllRoles = []string{RoleAdmin, RoleSupervisor, RoleTrainee}

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
