package models

import "time"

type Admin struct {
	ID           int       `json:"id" db:"id"`
	TenantID     int       `json:"tenant_id" db:"tenant_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
