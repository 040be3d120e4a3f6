// Package models defines server-side records persisted in the database.
package models

import "time"

// User is an account in the user directory. Password always holds the
// encoded hash and is never serialized.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	UserType    string    `json:"userType"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
