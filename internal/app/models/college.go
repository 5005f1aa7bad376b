package models

import "time"

// College is the root of the organizational hierarchy. It owns communities and
// scopes the faculty leader and dean approval roles.
type College struct {
	ID                   int64     `json:"id" db:"id"`
	Code                 string    `json:"code" db:"code"`
	Name                 string    `json:"name" db:"name"`
	DefaultEventCapacity *int      `json:"defaultEventCapacity,omitempty" db:"default_event_capacity"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}
