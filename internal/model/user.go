package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Authorities expands a role into the permission labels it grants. Admins
// hold every authority a regular user holds.
func (r Role) Authorities() []string {
	switch r {
	case RoleAdmin:
		return []string{string(RoleUser), string(RoleAdmin)}
	case RoleUser:
		return []string{string(RoleUser)}
	default:
		return nil
	}
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated caller attached to a request context after
// token verification. It lives for the duration of that request only.
type Identity struct {
	Username    string   `json:"username"`
	Role        Role     `json:"role"`
	Authorities []string `json:"authorities"`
}

// UserProfile is the public projection of a User without credential material.
type UserProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Role      Role   `json:"role"`
}

func (u User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Role:      u.Role,
	}
}
