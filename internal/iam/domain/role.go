package domain

import "time"

type Role struct {
	ID        string
	Name      string // globally unique, e.g. "CEO"
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Permission struct {
	ID          string
	Title       string // globally unique capability string, e.g. "manage_roles"
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
