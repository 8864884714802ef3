package domain

import "time"

// User is a stored credential record: a login identity plus its profile.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	Department   string    `json:"department,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// NewCredential carries the plaintext input for creating a User.
// Role may be empty, in which case the store applies its default role.
type NewCredential struct {
	Username   string
	Password   string
	FullName   string
	Role       Role
	Department string
	Phone      string
}

// Identity returns the public claims for u, as embedded in a session token.
func (u *User) Identity() Identity {
	return Identity{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       u.Role,
		Department: u.Department,
	}
}
