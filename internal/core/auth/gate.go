package auth

// Allow is the access gate: an empty allowed set admits any authenticated role.
func Allow(role string, allowed []string) bool {
	if len(allowed) == 0 {
		return role != ""
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Common role sets for route declarations.
var (
	AnyMember = []string{"admin", "user"}
	AdminOnly = []string{"admin"}
)
