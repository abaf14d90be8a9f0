// Package storage persists artifacts on a content-addressed network.
//
// Blobs are identified by a ContentID derived from their bytes. Memory is
// an in-process store for tests and local runs, IPFS talks to a Kubo node
// over its RPC API, and Cached puts a bounded in-memory cache in front of
// any Store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

var (
	// ErrNotFound is returned by Fetch for unknown content.
	ErrNotFound = errors.New("storage: content not found")

	// ErrInvalidID is returned for malformed content ids and URIs.
	ErrInvalidID = errors.New("storage: invalid content id")
)

// URIScheme prefixes content ids in artifact URIs.
const URIScheme = "ipfs://"

// ContentID is an opaque content-derived identifier. The zero value means
// no content.
type ContentID string

// rawLeaf builds the CIDv1 an IPFS node reports for a blob added as a
// single raw leaf.
var rawLeaf = cid.V1Builder{Codec: cid.Raw, MhType: multihash.SHA2_256}

// Sum returns the content id of blob. It matches what an IPFS node reports
// for a blob added as a single raw leaf with CIDv1.
func Sum(blob []byte) ContentID {
	c, err := rawLeaf.Sum(blob)
	if err != nil {
		// sha2-256 is always registered
		panic(fmt.Sprintf("storage: sum: %v", err))
	}
	return ContentID(c.String())
}

// IsZero reports whether c names no content.
func (c ContentID) IsZero() bool { return c == "" }

func (c ContentID) String() string { return string(c) }

// URI returns c as an ipfs:// URI.
func (c ContentID) URI() string { return URIScheme + string(c) }

// Parse validates s as a content id and returns it in its canonical
// string form.
func Parse(s string) (ContentID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidID, s, err)
	}
	return ContentID(c.String()), nil
}

// ParseURI extracts the content id from an ipfs:// URI. An empty URI or the
// bare scheme yields the zero ContentID, meaning nothing is stored yet.
func ParseURI(uri string) (ContentID, error) {
	if uri == "" || uri == URIScheme {
		return "", nil
	}
	rest, ok := strings.CutPrefix(uri, URIScheme)
	if !ok {
		return "", fmt.Errorf("%w: %q is not an %s URI", ErrInvalidID, uri, URIScheme)
	}
	return Parse(rest)
}

// Store persists and retrieves blobs by content id.
type Store interface {
	Store(ctx context.Context, blob []byte) (ContentID, error)
	Fetch(ctx context.Context, id ContentID) ([]byte, error)
}

// Pinner is implemented by stores that can keep content resident.
type Pinner interface {
	Pin(ctx context.Context, id ContentID) error
	IsPinned(ctx context.Context, id ContentID) (bool, error)
}
