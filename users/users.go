package users

// Role names are plain capability labels; access decisions compare a
// caller's roles against a resource's required roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string   `json:"id"`       // Unique identifier, generated at registration
	Email        string   `json:"email"`    // Unique across all users
	Username     string   `json:"username"` // Display name, not unique
	PasswordHash string   `json:"-"`        // Never serialized
	IsActive     bool     `json:"is_active"`
	IsSuperuser  bool     `json:"is_superuser"`
	Roles        []string `json:"roles"`
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
