package models

import "time"

// Invite is a single-use registration code that grants Role.
type Invite struct {
	Code      string     `json:"code"`
	Role      Role       `json:"role"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	Used      bool       `json:"used"`
	UsedBy    string     `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
