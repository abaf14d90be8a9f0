package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/trouthatch/trout/internal/sqlitemigrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite is a development ledger persisted in a SQLite file, so a local
// orchestrator can be stopped and restarted against the same items.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the ledger database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sqlitemigrate.Open(ctx, path, migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Mint appends an item with the given parents and returns its id.
func (s *SQLite) Mint(ctx context.Context, left, right uint64) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ledger: mint: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	n, err := supply(ctx, tx)
	if err != nil {
		return 0, err
	}
	if err := checkParents(n, left, right); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO items (id, left_id, right_id) VALUES (?, ?, ?)", n+1, left, right,
	); err != nil {
		return 0, fmt.Errorf("ledger: mint: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ledger: mint: %w", err)
	}
	return n + 1, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func supply(ctx context.Context, q queryer) (uint64, error) {
	var n uint64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: total supply: %w", err)
	}
	return n, nil
}

// TotalSupply implements Ledger.
func (s *SQLite) TotalSupply(ctx context.Context) (uint64, error) {
	return supply(ctx, s.db)
}

// Parents implements Ledger.
func (s *SQLite) Parents(ctx context.Context, id uint64) (uint64, uint64, error) {
	var left, right uint64
	err := s.db.QueryRowContext(ctx, "SELECT left_id, right_id FROM items WHERE id = ?", id).Scan(&left, &right)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: %d", ErrNoSuchItem, id)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("ledger: parents of %d: %w", id, err)
	}
	return left, right, nil
}

// ArtifactURI implements Ledger.
func (s *SQLite) ArtifactURI(ctx context.Context, id uint64) (string, error) {
	var uri string
	err := s.db.QueryRowContext(ctx, "SELECT uri FROM items WHERE id = ?", id).Scan(&uri)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", ErrNoSuchItem, id)
	}
	if err != nil {
		return "", fmt.Errorf("ledger: uri of %d: %w", id, err)
	}
	return uri, nil
}

// SubmitResults implements Ledger. The whole batch is applied in one
// transaction.
func (s *SQLite) SubmitResults(ctx context.Context, items []uint64, aux, results []byte, opts SubmitOptions) (Receipt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Receipt{}, fmt.Errorf("ledger: submit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	n, err := supply(ctx, tx)
	if err != nil {
		return Receipt{}, err
	}
	cids, err := checkSubmission(n, items, results)
	if err != nil {
		return Receipt{}, err
	}
	for i, id := range items {
		if _, err := tx.ExecContext(ctx, "UPDATE items SET uri = ? WHERE id = ?", "ipfs://"+cids[i], id); err != nil {
			return Receipt{}, fmt.Errorf("ledger: submit item %d: %w", id, err)
		}
	}
	var nonce int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&nonce); err != nil {
		return Receipt{}, fmt.Errorf("ledger: submit: %w", err)
	}
	hash := txHash(nonce, items, results)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO submissions (tx_hash, item_count, gas_limit, created_at) VALUES (?, ?, ?, ?)",
		hash, len(items), opts.GasLimit, time.Now().UTC().UnixMilli(),
	); err != nil {
		return Receipt{}, fmt.Errorf("ledger: record submission: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Receipt{}, fmt.Errorf("ledger: submit: %w", err)
	}
	return Receipt{TxHash: hash, Items: len(items)}, nil
}
