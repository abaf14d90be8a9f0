package spawner

import (
	"errors"
	"fmt"

	"github.com/trouthatch/trout/artifact"
)

var (
	// ErrTransient wraps a ledger or storage failure that persisted through
	// every retry.
	ErrTransient = errors.New("spawner: transient failure")

	// ErrMissingParent is returned when a bred item's parent has no
	// readable artifact. The item is never computed as a root instead.
	ErrMissingParent = errors.New("spawner: missing parent artifact")

	// ErrLegacyFormat is returned when a stored artifact that must be read
	// predates the current schema.
	ErrLegacyFormat = artifact.ErrLegacyFormat

	// ErrSubmitFailed is returned when at least one batch was not accepted
	// by the ledger. Its results stay cached for the next run.
	ErrSubmitFailed = errors.New("spawner: batch submission failed")
)

// ItemError reports the item whose computation stopped a run.
type ItemError struct {
	Item uint64
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("spawner: item %d: %v", e.Item, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
