package account

import (
	"context"
	"database/sql"

	"docnest/internal/credits"
)

// PostgresRepo backs the credit ledger and the account endpoint. Deduct is a
// single UPDATE so each settlement is atomic even though the surrounding
// check/settle pair is not.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context, userID string) (*credits.Account, error) {
	a := &credits.Account{}
	query := `SELECT id, credits, data_sources_count FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&a.UserID, &a.Credits, &a.DataSourcesCount)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepo) Deduct(ctx context.Context, userID string, amount float64) (float64, error) {
	var balance float64
	query := `UPDATE users SET credits = credits - $1, updated_at = NOW() WHERE id = $2 RETURNING credits`
	err := r.db.QueryRowContext(ctx, query, amount, userID).Scan(&balance)
	return balance, err
}

func (r *PostgresRepo) AddSource(ctx context.Context, userID string) error {
	query := `UPDATE users SET data_sources_count = data_sources_count + 1, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *PostgresRepo) RemoveSource(ctx context.Context, userID string) error {
	query := `UPDATE users SET data_sources_count = GREATEST(data_sources_count - 1, 0), updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// Detail fetches the full row for the account endpoint.
func (r *PostgresRepo) Detail(ctx context.Context, userID string) (*Account, error) {
	a := &Account{}
	query := `SELECT id, email, credits, data_sources_count, created_at FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&a.UserID, &a.Email, &a.Credits, &a.DataSourcesCount, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
