// Package domain contains the core entities of the sync server: users,
// progress snapshots, and document metadata.
package domain

import "time"

// User is an account that owns progress snapshots.
// Created at registration and never mutated afterwards.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
