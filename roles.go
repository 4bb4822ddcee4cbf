package taskvault

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

var roleHierarchy = map[UserRole]int{
	RoleUser:  1,
	RoleAdmin: 2,
	RoleOwner: 3,
}

// RoleIsAtLeast checks if role meets the minimum required level.
// Unknown roles never satisfy any requirement.
func RoleIsAtLeast(role, minRole UserRole) bool {
	current, ok := roleHierarchy[role]
	if !ok {
		return false
	}
	min, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}
	return current >= min
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{RoleUser, RoleAdmin, RoleOwner}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
