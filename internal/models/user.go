package models

// Role is the account role assigned by the backend
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a role the backend understands
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account as the API returns it. The same shape is used
// for the signed-in user and for every contact in the friend list.
type User struct {
	ID               string `json:"_id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	AvatarImage      string `json:"avatarImage,omitempty"` // base64 SVG payload
	IsAvatarImageSet bool   `json:"isAvatarImageSet"`
	Role             Role   `json:"role,omitempty"`
}

// IsAdmin reports whether the user may open the admin view
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the username, falling back to the email
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
