// Package index keeps a queryable SQLite copy of the stored artifacts: one
// row per item with its parents, format version and content ids. It answers
// the questions the ledger cannot answer cheaply (which items are outdated,
// how inbred an item is) and holds the orchestrator's cache checkpoint.
package index

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/internal/sqlitemigrate"
	"github.com/trouthatch/trout/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned for items that are not indexed.
var ErrNotFound = errors.New("index: item not indexed")

// Record is the indexed form of one artifact.
type Record struct {
	Self          artifact.OrganismID
	Left, Right   uint64 // zero for roots
	ContentID     storage.ContentID
	Image         string
	Name          string
	Attributes    artifact.Attributes
	FormatVersion int
	Generations   []storage.ContentID
}

// RecordOf builds the record of metadata stored under id.
func RecordOf(id storage.ContentID, m *artifact.Metadata) Record {
	r := Record{
		Self:          m.Properties.Self,
		ContentID:     id,
		Image:         m.Image,
		Name:          m.Name,
		Attributes:    m.Properties.Attributes,
		FormatVersion: m.Properties.FormatVersion,
		Generations:   m.Properties.Generations,
	}
	if !m.Properties.IsRoot() {
		r.Left, r.Right = m.Properties.Left.ItemID, m.Properties.Right.ItemID
	}
	return r
}

// Index is a SQLite artifact index.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at path.
func Open(ctx context.Context, path string) (*Index, error) {
	db, err := sqlitemigrate.Open(ctx, path, migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Put inserts or replaces records in one transaction.
func (x *Index) Put(ctx context.Context, recs ...Record) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO artifacts (
	network_id, item_id,
	content_id, image, name,
	genesis, seasonal,
	format_version, generations,
	left_id, right_id,
	indexed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: put: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().UnixMilli()
	for _, r := range recs {
		gens := r.Generations
		if gens == nil {
			gens = []storage.ContentID{}
		}
		gensJSON, err := json.Marshal(gens)
		if err != nil {
			return fmt.Errorf("index: put %s: %w", r.Self, err)
		}
		var left, right sql.NullInt64
		if r.Left != 0 {
			left = sql.NullInt64{Int64: int64(r.Left), Valid: true}
			right = sql.NullInt64{Int64: int64(r.Right), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			r.Self.NetworkID, r.Self.ItemID,
			string(r.ContentID), r.Image, r.Name,
			r.Attributes.Genesis, r.Attributes.Seasonal,
			r.FormatVersion, string(gensJSON),
			left, right,
			now,
		); err != nil {
			return fmt.Errorf("index: put %s: %w", r.Self, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: put: %w", err)
	}
	return nil
}

// Get returns the record of id.
func (x *Index) Get(ctx context.Context, id artifact.OrganismID) (Record, error) {
	row := x.db.QueryRowContext(ctx, `
SELECT content_id, image, name, genesis, seasonal, format_version, generations, left_id, right_id
FROM artifacts WHERE network_id = ? AND item_id = ?`, id.NetworkID, id.ItemID)

	r := Record{Self: id}
	var cid, gens string
	var left, right sql.NullInt64
	err := row.Scan(&cid, &r.Image, &r.Name, &r.Attributes.Genesis, &r.Attributes.Seasonal,
		&r.FormatVersion, &gens, &left, &right)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("index: get %s: %w", id, err)
	}
	r.ContentID = storage.ContentID(cid)
	if err := json.Unmarshal([]byte(gens), &r.Generations); err != nil {
		return Record{}, fmt.Errorf("index: generations of %s: %w", id, err)
	}
	if left.Valid {
		r.Left, r.Right = uint64(left.Int64), uint64(right.Int64)
	}
	return r, nil
}

// LatestItem returns the highest indexed item id of a network, or zero.
func (x *Index) LatestItem(ctx context.Context, networkID uint64) (uint64, error) {
	var latest sql.NullInt64
	err := x.db.QueryRowContext(ctx,
		"SELECT MAX(item_id) FROM artifacts WHERE network_id = ?", networkID,
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("index: latest item: %w", err)
	}
	return uint64(latest.Int64), nil
}

// OutdatedItems returns up to limit item ids, ascending, whose artifacts
// were written with an older format version.
func (x *Index) OutdatedItems(ctx context.Context, networkID uint64, limit int) ([]uint64, error) {
	rows, err := x.db.QueryContext(ctx, `
SELECT item_id FROM artifacts
WHERE network_id = ? AND format_version < ?
ORDER BY item_id
LIMIT ?`, networkID, artifact.CurrentFormatVersion, limit)
	if err != nil {
		return nil, fmt.Errorf("index: outdated items: %w", err)
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("index: outdated items: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Lineage loads the parent graph of a network.
func (x *Index) Lineage(ctx context.Context, networkID uint64) (*Lineage, error) {
	rows, err := x.db.QueryContext(ctx,
		"SELECT item_id, left_id, right_id FROM artifacts WHERE network_id = ?", networkID)
	if err != nil {
		return nil, fmt.Errorf("index: lineage: %w", err)
	}
	defer rows.Close()
	l := NewLineage()
	for rows.Next() {
		var id uint64
		var left, right sql.NullInt64
		if err := rows.Scan(&id, &left, &right); err != nil {
			return nil, fmt.Errorf("index: lineage: %w", err)
		}
		l.Add(id, uint64(left.Int64), uint64(right.Int64))
	}
	return l, rows.Err()
}
