package model

import "time"

type Workshop struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PriceCents      int64     `json:"price_cents"` // 0 means free
	MaxParticipants int       `json:"max_participants"`
	AddressID       *int64    `json:"address_id"`
	InstructorID    *int64    `json:"instructor_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type Address struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}
