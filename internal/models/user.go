package models

import "time"

// User is an identity record. Credential state lives with the identity service;
// this service only reads usernames and display data.
type User struct {
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
