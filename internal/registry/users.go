package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"subdomtop/internal/database"
	"subdomtop/internal/models"
)

// Users resolves owner profiles for public pages.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SQLUsers struct {
	db *database.DB
}

func NewSQLUsers(db *database.DB) *SQLUsers {
	return &SQLUsers{db: db}
}

func (u *SQLUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := u.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	return &user, nil
}
