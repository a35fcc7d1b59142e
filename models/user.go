package models

import "time"

// User is an account known to the authoritative store. Password carries the
// plaintext credential only inside register/login requests; it is stored as
// a bcrypt hash and never returned to clients.
type User struct {
	UserID    int64      `json:"user_id,omitempty"`
	Login     string     `json:"login"`
	Password  string     `json:"password,omitempty"`
	Name      string     `json:"name,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
