// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is an account's capability tier.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalises s and rejects anything other than a known role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is a registered account. Username is the primary key and never changes.
type User struct {
	Username     string
	PasswordHash string
	Role         Role
	InviteUsed   string
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
