package namespace

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/postgres"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS namespaces (
	name TEXT PRIMARY KEY,
	id   INTEGER NOT NULL
)`

// PostgresStore reads the namespace table. Aliases are extra rows sharing
// an id.
type PostgresStore struct {
	db *postgres.Client
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("creating namespaces table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.DB.QueryContext(ctx, `SELECT name, id FROM namespaces`)
	if err != nil {
		return nil, fmt.Errorf("querying namespaces: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			name string
			id   int
		)
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scanning namespace row: %w", err)
		}
		out[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating namespace rows: %w", err)
	}
	return out, nil
}

// Seed inserts names missing from the table in one transaction. Existing
// rows keep their ids. It returns the number of rows added.
func (s *PostgresStore) Seed(ctx context.Context, names map[string]int) (int, error) {
	added := 0
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO namespaces (name, id) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing namespace insert: %w", err)
		}
		defer stmt.Close()
		for name, id := range names {
			n := normalize(name)
			if n == "" {
				continue
			}
			res, err := stmt.ExecContext(ctx, n, id)
			if err != nil {
				return fmt.Errorf("seeding namespace %q: %w", name, err)
			}
			if rows, _ := res.RowsAffected(); rows > 0 {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
