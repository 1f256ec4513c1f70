package content

import "time"

// Content is a stored item gated by role. RequiredRoles is always
// non-empty; an item with no gating roles cannot be created.
type Content struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Body          string    `json:"body"`
	RequiredRoles []string  `json:"required_roles"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Draft is the creation payload.
type Draft struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Body          string   `json:"body"`
	RequiredRoles []string `json:"required_roles"`
}

// Patch is a partial update. Nil fields are left untouched; set fields
// are applied one by one against the stored record. UpdatedAt is
// refreshed on every applied patch, even an empty one.
type Patch struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Body          *string   `json:"body,omitempty"`
	RequiredRoles *[]string `json:"required_roles,omitempty"`
}
