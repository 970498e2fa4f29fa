package models

import "time"

// Relationship is the per-user read model of the binding graph. Every set is
// sorted and never contains the owner's own username.
type Relationship struct {
	Username string   `json:"username"`
	Sent     []string `json:"sent"`
	Received []string `json:"received"`
	Bound    []string `json:"bound"`
}

// BindingRequest is a pending request from From to To.
type BindingRequest struct {
	From      string
	To        string
	CreatedAt time.Time
}

// Binding is a mutual partnership stored once per pair with Low < High.
type Binding struct {
	Low       string
	High      string
	CreatedAt time.Time
}

// NewBinding orders a and b into the canonical pair.
func NewBinding(a, b string) Binding {
	if b < a {
		a, b = b, a
	}
	return Binding{Low: a, High: b}
}

// Other returns the partner of username in the pair.
func (b Binding) Other(username string) string {
	if b.Low == username {
		return b.High
	}
	return b.Low
}
