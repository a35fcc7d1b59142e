package models

import "github.com/golang-jwt/jwt/v5"

// Token is a parsed or freshly issued JWT with the user id extracted from
// the subject claim.
type Token struct {
	Token        *jwt.Token `json:"-"`
	SignedString string     `json:"token"`
	UserID       int64      `json:"user_id"`
}
