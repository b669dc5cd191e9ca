package notebook

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, n *Notebook) error {
	query := `INSERT INTO notebooks (user_id, title) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, n.UserID, n.Title).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

// BelongsToUser is the ownership gate every content and chat operation
// passes through.
func (r *PostgresRepo) BelongsToUser(ctx context.Context, notebookID, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM notebooks WHERE id = $1 AND user_id = $2)`
	err := r.db.QueryRowContext(ctx, query, notebookID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Notebook, error) {
	n := &Notebook{}
	query := `SELECT id, user_id, title, created_at, updated_at FROM notebooks WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&n.ID, &n.UserID, &n.Title, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]Notebook, error) {
	query := `SELECT id, user_id, title, created_at, updated_at FROM notebooks WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notebooks []Notebook
	for rows.Next() {
		var n Notebook
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notebooks = append(notebooks, n)
	}
	return notebooks, rows.Err()
}
