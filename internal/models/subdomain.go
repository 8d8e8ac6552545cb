package models

import (
	"time"

	"github.com/google/uuid"
)

// Subdomain is one claimed handle under the parent domain. The handle doubles
// as the registry key and the display prefix.
type Subdomain struct {
	Handle        string    `db:"handle" json:"handle"`
	OwnerID       uuid.UUID `db:"owner_id" json:"owner_id"`
	Status        string    `db:"status" json:"status"` // active, suspended
	ForwardingURL string    `db:"forwarding_url" json:"forwarding_url"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type PasswordReset struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	TokenHash string     `db:"token_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
