package index

import (
	"context"
	"fmt"

	"github.com/trouthatch/trout/storage"
)

// CheckpointEntry is one saved orchestrator cache entry.
type CheckpointEntry struct {
	Item      uint64
	ContentID storage.ContentID
	Posted    bool
}

// SaveCheckpoint replaces the saved cache of a network with entries.
func (x *Index) SaveCheckpoint(ctx context.Context, networkID uint64, entries []CheckpointEntry) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: save checkpoint: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM checkpoint WHERE network_id = ?", networkID); err != nil {
		return fmt.Errorf("index: save checkpoint: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO checkpoint (network_id, item_id, content_id, posted) VALUES (?, ?, ?, ?)",
			networkID, e.Item, string(e.ContentID), e.Posted,
		); err != nil {
			return fmt.Errorf("index: save checkpoint item %d: %w", e.Item, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint returns the saved cache of a network ordered by item.
func (x *Index) LoadCheckpoint(ctx context.Context, networkID uint64) ([]CheckpointEntry, error) {
	rows, err := x.db.QueryContext(ctx,
		"SELECT item_id, content_id, posted FROM checkpoint WHERE network_id = ? ORDER BY item_id", networkID)
	if err != nil {
		return nil, fmt.Errorf("index: load checkpoint: %w", err)
	}
	defer rows.Close()
	var out []CheckpointEntry
	for rows.Next() {
		var e CheckpointEntry
		var cid string
		if err := rows.Scan(&e.Item, &cid, &e.Posted); err != nil {
			return nil, fmt.Errorf("index: load checkpoint: %w", err)
		}
		e.ContentID = storage.ContentID(cid)
		out = append(out, e)
	}
	return out, rows.Err()
}
