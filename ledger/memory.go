package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
)

// Submission records one accepted SubmitResults call.
type Submission struct {
	Items   []uint64
	Results []string
	Options SubmitOptions
	TxHash  string
}

type item struct {
	left, right uint64
	uri         string
}

// Memory is an in-process ledger. It is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	items       []item // items[0] is item 1
	submissions []Submission
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{}
}

// Mint appends an item with the given parents and returns its id. Both
// parents must be zero or both must be existing items.
func (m *Memory) Mint(left, right uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkParents(uint64(len(m.items)), left, right); err != nil {
		return 0, err
	}
	m.items = append(m.items, item{left: left, right: right, uri: "ipfs://"})
	return uint64(len(m.items)), nil
}

func checkParents(n, left, right uint64) error {
	if (left == 0) != (right == 0) {
		return fmt.Errorf("ledger: item needs both parents or none, got %d and %d", left, right)
	}
	if left > n || right > n {
		return fmt.Errorf("%w: parent of new item %d", ErrNoSuchItem, n+1)
	}
	return nil
}

// SetArtifactURI overwrites the URI of an item directly, bypassing
// submission rules.
func (m *Memory) SetArtifactURI(id uint64, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, err := m.item(id)
	if err != nil {
		return err
	}
	it.uri = uri
	return nil
}

func (m *Memory) item(id uint64) (*item, error) {
	if id == 0 || id > uint64(len(m.items)) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchItem, id)
	}
	return &m.items[id-1], nil
}

// TotalSupply implements Ledger.
func (m *Memory) TotalSupply(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.items)), nil
}

// Parents implements Ledger.
func (m *Memory) Parents(ctx context.Context, id uint64) (uint64, uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.item(id)
	if err != nil {
		return 0, 0, err
	}
	return it.left, it.right, nil
}

// ArtifactURI implements Ledger.
func (m *Memory) ArtifactURI(ctx context.Context, id uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.item(id)
	if err != nil {
		return "", err
	}
	return it.uri, nil
}

// SubmitResults implements Ledger.
func (m *Memory) SubmitResults(ctx context.Context, items []uint64, aux, results []byte, opts SubmitOptions) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cids, err := checkSubmission(uint64(len(m.items)), items, results)
	if err != nil {
		return Receipt{}, err
	}
	for i, id := range items {
		m.items[id-1].uri = "ipfs://" + cids[i]
	}
	hash := txHash(len(m.submissions), items, results)
	m.submissions = append(m.submissions, Submission{
		Items:   slices.Clone(items),
		Results: cids,
		Options: opts,
		TxHash:  hash,
	})
	return Receipt{TxHash: hash, Items: len(items)}, nil
}

// Submissions returns the accepted submissions in order.
func (m *Memory) Submissions() []Submission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.submissions)
}

// txHash derives a stable transaction hash for the nonce'th submission.
func txHash(nonce int, items []uint64, results []byte) string {
	h := sha256.New()
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(nonce))
	h.Write(b[:])
	for _, id := range items {
		binary.BigEndian.PutUint64(b[:], id)
		h.Write(b[:])
	}
	h.Write(results)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
