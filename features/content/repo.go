package content

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, c *Content) error {
	query := `INSERT INTO contents (user_id, notebook_id, title, source_type, source_data, extracted_text, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		c.UserID, c.NotebookID, c.Title, c.SourceType, c.SourceData, c.ExtractedText, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// MarkCompleted sets the terminal success state; indexing results land only
// on completed rows.
func (r *PostgresRepo) MarkCompleted(ctx context.Context, id, collection string, chunkCount, tokensUsed int) error {
	query := `UPDATE contents SET status = 'completed', collection_name = $2, chunk_count = $3, tokens_used = $4, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, collection, chunkCount, tokensUsed)
	return err
}

// MarkFailed sets the terminal failure state; the error message is stored
// verbatim.
func (r *PostgresRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	query := `UPDATE contents SET status = 'failed', error_message = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, errMsg)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id, userID string) (*Content, error) {
	c := &Content{}
	query := `SELECT id, user_id, notebook_id, title, source_type, source_data,
		status, COALESCE(error_message, ''), COALESCE(collection_name, ''),
		chunk_count, tokens_used, created_at, updated_at
		FROM contents WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.NotebookID, &c.Title, &c.SourceType, &c.SourceData,
		&c.Status, &c.ErrorMessage, &c.CollectionName,
		&c.ChunkCount, &c.TokensUsed, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepo) ListByNotebook(ctx context.Context, notebookID, userID string) ([]Content, error) {
	query := `SELECT id, user_id, notebook_id, title, source_type, source_data,
		status, COALESCE(error_message, ''), COALESCE(collection_name, ''),
		chunk_count, tokens_used, created_at, updated_at
		FROM contents WHERE notebook_id = $1 AND user_id = $2 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, notebookID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []Content
	for rows.Next() {
		var c Content
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.NotebookID, &c.Title, &c.SourceType, &c.SourceData,
			&c.Status, &c.ErrorMessage, &c.CollectionName,
			&c.ChunkCount, &c.TokensUsed, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// CompletedByIDs returns only the requested contents that are owned by the
// user, live in the notebook, and finished processing. A shorter result than
// the request means some selection was invalid.
func (r *PostgresRepo) CompletedByIDs(ctx context.Context, ids []string, userID, notebookID string) ([]Content, error) {
	query := `SELECT id, user_id, notebook_id, title, source_type, source_data,
		status, COALESCE(error_message, ''), COALESCE(collection_name, ''),
		chunk_count, tokens_used, created_at, updated_at
		FROM contents WHERE id = ANY($1) AND user_id = $2 AND notebook_id = $3 AND status = 'completed'`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids), userID, notebookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []Content
	for rows.Next() {
		var c Content
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.NotebookID, &c.Title, &c.SourceType, &c.SourceData,
			&c.Status, &c.ErrorMessage, &c.CollectionName,
			&c.ChunkCount, &c.TokensUsed, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM contents GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PostgresRepo) TotalChunks(ctx context.Context) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(chunk_count), 0) FROM contents WHERE status = 'completed'`
	err := r.db.QueryRowContext(ctx, query).Scan(&total)
	return total, err
}
