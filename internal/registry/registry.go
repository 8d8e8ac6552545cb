package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"subdomtop/internal/database"
	"subdomtop/internal/models"
)

var (
	ErrAlreadyClaimed = errors.New("handle already claimed")
	ErrNotFound       = errors.New("handle not found")
	ErrNotOwner       = errors.New("caller does not own this handle")
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Normalize lowercases the raw input and strips every character outside
// [a-z0-9-]. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Registry is the handle record set, keyed by normalized handle.
type Registry interface {
	CheckAvailable(ctx context.Context, handle string) (bool, error)
	Claim(ctx context.Context, handle string, ownerID uuid.UUID) (*models.Subdomain, error)
	GetByHandle(ctx context.Context, handle string) (*models.Subdomain, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Subdomain, error)
	ListAll(ctx context.Context) ([]models.Subdomain, error)
	SetForwarding(ctx context.Context, handle string, ownerID uuid.UUID, url string) error
	UpdateStatus(ctx context.Context, handle string, ownerID uuid.UUID, status string) error
}

type SQLRegistry struct {
	db *database.DB
}

func NewSQL(db *database.DB) *SQLRegistry {
	return &SQLRegistry{db: db}
}

func (r *SQLRegistry) CheckAvailable(ctx context.Context, handle string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM subdomains WHERE handle = $1", handle)
	if err != nil {
		return false, fmt.Errorf("availability check failed: %w", err)
	}
	return count == 0, nil
}

// Claim inserts the record. The primary key constraint is the real race
// enforcement; a unique violation from a concurrent winner surfaces as
// ErrAlreadyClaimed.
func (r *SQLRegistry) Claim(ctx context.Context, handle string, ownerID uuid.UUID) (*models.Subdomain, error) {
	var sub models.Subdomain
	err := r.db.GetContext(ctx, &sub, `
		INSERT INTO subdomains (handle, owner_id, status)
		VALUES ($1, $2, 'active')
		RETURNING handle, owner_id, status, forwarding_url, created_at, updated_at
	`, handle, ownerID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("claim insert failed: %w", err)
	}
	return &sub, nil
}

func (r *SQLRegistry) GetByHandle(ctx context.Context, handle string) (*models.Subdomain, error) {
	var sub models.Subdomain
	err := r.db.GetContext(ctx, &sub, "SELECT * FROM subdomains WHERE handle = $1", handle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("handle lookup failed: %w", err)
	}
	return &sub, nil
}

func (r *SQLRegistry) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Subdomain, error) {
	var subs []models.Subdomain
	err := r.db.SelectContext(ctx, &subs, "SELECT * FROM subdomains WHERE owner_id = $1", ownerID)
	if err != nil {
		return nil, fmt.Errorf("owner listing failed: %w", err)
	}
	return subs, nil
}

func (r *SQLRegistry) ListAll(ctx context.Context) ([]models.Subdomain, error) {
	var subs []models.Subdomain
	err := r.db.SelectContext(ctx, &subs, "SELECT * FROM subdomains")
	if err != nil {
		return nil, fmt.Errorf("registry listing failed: %w", err)
	}
	return subs, nil
}

func (r *SQLRegistry) SetForwarding(ctx context.Context, handle string, ownerID uuid.UUID, url string) error {
	return r.ownerUpdate(ctx, handle, ownerID,
		"UPDATE subdomains SET forwarding_url = $1, updated_at = NOW() WHERE handle = $2", url)
}

func (r *SQLRegistry) UpdateStatus(ctx context.Context, handle string, ownerID uuid.UUID, status string) error {
	return r.ownerUpdate(ctx, handle, ownerID,
		"UPDATE subdomains SET status = $1, updated_at = NOW() WHERE handle = $2", status)
}

func (r *SQLRegistry) ownerUpdate(ctx context.Context, handle string, ownerID uuid.UUID, query, value string) error {
	if err := r.checkOwner(ctx, handle, ownerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, query, value, handle)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}

// checkOwner verifies the acting identity against the stored owner before any
// mutation. Ownership is never taken from the request body.
func (r *SQLRegistry) checkOwner(ctx context.Context, handle string, ownerID uuid.UUID) error {
	sub, err := r.GetByHandle(ctx, handle)
	if err != nil {
		return err
	}
	if sub.OwnerID != ownerID {
		return ErrNotOwner
	}
	return nil
}
