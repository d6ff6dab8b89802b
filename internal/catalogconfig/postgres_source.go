package catalogconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opdsapi/internal/errs"
)

// PostgresSource stores named catalog documents in catalog_documents. The
// body is kept as TEXT so key order survives the round trip.
type PostgresSource struct {
	db   *pgxpool.Pool
	name string
}

func NewPostgresSource(db *pgxpool.Pool, name string) *PostgresSource {
	return &PostgresSource{db: db, name: name}
}

func (s *PostgresSource) Read(ctx context.Context) ([]byte, error) {
	const q = `SELECT body FROM catalog_documents WHERE name = $1`

	var body string
	if err := s.db.QueryRow(ctx, q, s.name).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("catalog document %q not found", s.name)
		}
		return nil, fmt.Errorf("select catalog document: %w", err)
	}
	return []byte(body), nil
}

// Save validates body and upserts it under the source's name.
func (s *PostgresSource) Save(ctx context.Context, body []byte) error {
	if _, err := Parse(body); err != nil {
		return err
	}

	const q = `
		INSERT INTO catalog_documents (name, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = now()`

	if _, err := s.db.Exec(ctx, q, s.name, string(body)); err != nil {
		return fmt.Errorf("upsert catalog document: %w", err)
	}
	return nil
}

func (s *PostgresSource) String() string {
	return "postgres:" + s.name
}
