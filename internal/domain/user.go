package domain

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is the identity resolved from a bearer token. Metadata is the provider's user_metadata object.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Role     string         `json:"role"`
	Metadata map[string]any `json:"-"`
}

func (u *User) HasRole(roles ...string) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Profile is the user as shown to the user: metadata fields first, then id, email and role on top.
func (u *User) Profile() map[string]any {
	out := make(map[string]any, len(u.Metadata)+3)
	for k, v := range u.Metadata {
		out[k] = v
	}
	out["id"] = u.ID
	out["email"] = u.Email
	out["role"] = u.Role
	return out
}

// NewStaffUser is an admin's request to create a staff account with the identity provider.
type NewStaffUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}
