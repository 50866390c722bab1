// Package users holds the user lookup collaborator consumed by session
// issuance, plus its own CRUD surface.
package users

import "time"

type User struct {
	ID           string    `json:"id"`
	TenancyID    string    `json:"-"`
	DisplayName  string    `json:"display_name,omitempty"`
	PrimaryEmail string    `json:"primary_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
