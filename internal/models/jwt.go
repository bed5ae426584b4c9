package models

import "time"

// IdentityClaims is the decoded payload of a bearer token.
type IdentityClaims struct {
	Subject   string     `json:"sub"`
	IssuedAt  *time.Time `json:"iat,omitempty"`
	ExpiresAt *time.Time `json:"exp,omitempty"`
}
