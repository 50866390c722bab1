// Package tenants defines the tenancy isolation boundary. A tenancy groups a
// project with one of its environment branches; every record in the platform
// is scoped to exactly one tenancy.
package tenants

import "time"

type Tenancy struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	BranchID  string    `json:"branch_id"`
	CreatedAt time.Time `json:"created_at"`
}
