// Package postgres stores notification settings as a single jsonb row.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subgarden/subgarden/internal/domain"
)

// Repository implements settings.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL settings repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Load reads the settings snapshot. When nothing has been saved yet it
// returns the defaults rather than an error.
func (r *Repository) Load(ctx context.Context) (*domain.NotificationSettings, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT config FROM notification_settings WHERE id = 1`,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			defaults := domain.DefaultNotificationSettings()
			return &defaults, nil
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var cfg domain.NotificationSettings
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &cfg, nil
}

// Save upserts the settings snapshot.
func (r *Repository) Save(ctx context.Context, cfg *domain.NotificationSettings) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO notification_settings (id, config, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET config = EXCLUDED.config, updated_at = now()
	`, raw)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
