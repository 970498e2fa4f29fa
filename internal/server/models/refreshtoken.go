package models

import "time"

type RefreshToken struct {
	Token     string
	Username  string
	Expires   time.Time
	CreatedAt time.Time
}

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
