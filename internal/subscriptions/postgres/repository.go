// Package postgres provides the PostgreSQL implementation of the
// subscriptions repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subgarden/subgarden/internal/domain"
)

// Repository implements subscriptions.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const subscriptionColumns = `
	id, name, category, start_date, expiry_date,
	period_value, period_unit, reminder_days, notes,
	is_active, auto_renew, created_at, updated_at
`

// List returns all subscriptions ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]domain.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// GetByID retrieves one subscription.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// Create inserts a new subscription.
func (r *Repository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, name, category, start_date, expiry_date,
			period_value, period_unit, reminder_days, notes,
			is_active, auto_renew, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query, insertArgs(sub)...)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Update overwrites an existing subscription.
func (r *Repository) Update(ctx context.Context, sub *domain.Subscription) error {
	query := `
		UPDATE subscriptions SET
			name = $2, category = $3, start_date = $4, expiry_date = $5,
			period_value = $6, period_unit = $7, reminder_days = $8, notes = $9,
			is_active = $10, auto_renew = $11, updated_at = $12
		WHERE id = $1
	`
	var periodValue *int
	var periodUnit *string
	if sub.Period != nil {
		periodValue = &sub.Period.Value
		unit := string(sub.Period.Unit)
		periodUnit = &unit
	}

	tag, err := r.db.Exec(ctx, query,
		sub.ID, sub.Name, sub.Category, sub.StartDate, sub.ExpiryDate,
		periodValue, periodUnit, sub.ReminderDays, sub.Notes,
		sub.IsActive, sub.AutoRenew, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

// Delete removes a subscription.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

// ReplaceAll swaps the whole collection in a single transaction, so a
// failed pass can never leave a half-written set behind.
func (r *Repository) ReplaceAll(ctx context.Context, subs []domain.Subscription) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM subscriptions`); err != nil {
		return fmt.Errorf("clear subscriptions: %w", err)
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO subscriptions (
			id, name, category, start_date, expiry_date,
			period_value, period_unit, reminder_days, notes,
			is_active, auto_renew, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	for i := range subs {
		batch.Queue(query, insertArgs(&subs[i])...)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write subscriptions: %w", err)
	}
	return tx.Commit(ctx)
}

func insertArgs(sub *domain.Subscription) []any {
	var periodValue *int
	var periodUnit *string
	if sub.Period != nil {
		periodValue = &sub.Period.Value
		unit := string(sub.Period.Unit)
		periodUnit = &unit
	}
	return []any{
		sub.ID, sub.Name, sub.Category, sub.StartDate, sub.ExpiryDate,
		periodValue, periodUnit, sub.ReminderDays, sub.Notes,
		sub.IsActive, sub.AutoRenew, sub.CreatedAt, sub.UpdatedAt,
	}
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	var periodValue *int
	var periodUnit *string

	err := row.Scan(
		&sub.ID, &sub.Name, &sub.Category, &sub.StartDate, &sub.ExpiryDate,
		&periodValue, &periodUnit, &sub.ReminderDays, &sub.Notes,
		&sub.IsActive, &sub.AutoRenew, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if periodValue != nil && periodUnit != nil {
		sub.Period = &domain.Period{
			Value: *periodValue,
			Unit:  domain.PeriodUnit(*periodUnit),
		}
	}
	return &sub, nil
}
