package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ticketing/internal/entities"
)

type CapabilitiesRepo struct {
	db *sqlx.DB
}

func NewCapabilitiesRepo(db *sqlx.DB) *CapabilitiesRepo {
	return &CapabilitiesRepo{db: db}
}

func (r *CapabilitiesRepo) HasCapability(ctx context.Context, actorID uuid.UUID, capability entities.Capability) (bool, error) {
	var has bool
	err := r.db.QueryRowxContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_capabilities WHERE user_id = $1 AND capability = $2
		)`,
		actorID, string(capability),
	).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("failed to check capability: %w", err)
	}

	return has, nil
}

func (r *CapabilitiesRepo) Grant(ctx context.Context, userID uuid.UUID, capability entities.Capability) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_capabilities (user_id, capability)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		userID, string(capability),
	)
	if err != nil {
		return fmt.Errorf("failed to grant capability: %w", err)
	}

	return nil
}
