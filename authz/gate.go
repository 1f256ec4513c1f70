// Package authz evaluates role-based access decisions. A caller may
// read a resource when its role set intersects the resource's required
// roles. An empty required set is never treated as public: content
// creation rejects it up front.
package authz

// CanAccess reports whether callerRoles and requiredRoles intersect.
func CanAccess(callerRoles, requiredRoles []string) bool {
	for _, required := range requiredRoles {
		for _, role := range callerRoles {
			if role == required {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether roles contains role. Content mutation is
// gated on the admin role independently of the content's own required
// roles.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
