// Package ledger is the orchestrator's view of the append-only item ledger.
//
// The ledger itself (ownership, fees, access control) lives elsewhere; the
// orchestrator only reads the item count, parents and artifact URIs, and
// submits batches of computed results. Memory and SQLite implement the same
// submission rules as the real ledger so the orchestrator can run against
// them locally.
package ledger

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoSuchItem is returned for item ids outside 1..TotalSupply.
	ErrNoSuchItem = errors.New("ledger: no such item")

	// ErrRejected is returned when a submission breaks the ledger's rules.
	// Nothing of a rejected submission is applied.
	ErrRejected = errors.New("ledger: submission rejected")
)

// Receipt describes an accepted submission.
type Receipt struct {
	TxHash string
	Items  int
}

// SubmitOptions carries transaction parameters.
type SubmitOptions struct {
	// GasLimit overrides the estimated gas limit when non-zero.
	GasLimit uint64
}

// Ledger is the set of operations the orchestrator may perform.
type Ledger interface {
	// TotalSupply returns the number of items. Items are numbered 1..n.
	TotalSupply(ctx context.Context) (uint64, error)
	// Parents returns the parents of item. Zero means none.
	Parents(ctx context.Context, item uint64) (left, right uint64, err error)
	// ArtifactURI returns the artifact URI of item, empty or the bare
	// scheme when nothing has been posted.
	ArtifactURI(ctx context.Context, item uint64) (string, error)
	// SubmitResults posts one content id per item. Items must be strictly
	// ascending; results is the ABI encoding of a string[] of the same
	// length. The submission is atomic.
	SubmitResults(ctx context.Context, items []uint64, aux, results []byte, opts SubmitOptions) (Receipt, error)
}

// checkSubmission validates a submission against a supply of n items and
// returns the decoded content ids.
func checkSubmission(n uint64, items []uint64, results []byte) ([]string, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrRejected)
	}
	for i, id := range items {
		if id == 0 || id > n {
			return nil, fmt.Errorf("%w: item %d out of range 1..%d", ErrRejected, id, n)
		}
		if i > 0 && id <= items[i-1] {
			return nil, fmt.Errorf("%w: items not ascending at %d", ErrRejected, id)
		}
	}
	cids, err := DecodeStrings(results)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	if len(cids) != len(items) {
		return nil, fmt.Errorf("%w: %d results for %d items", ErrRejected, len(cids), len(items))
	}
	for i, c := range cids {
		if c == "" {
			return nil, fmt.Errorf("%w: empty result for item %d", ErrRejected, items[i])
		}
	}
	return cids, nil
}
