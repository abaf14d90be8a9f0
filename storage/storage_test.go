package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSum(t *testing.T) {
	tests := []struct {
		blob string
		want ContentID
	}{
		{"", "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"},
		{"hello world", "bafkreifzjut3te2nhyekklss27nh3k72ysco7y32koao5eei66wof36n5e"},
	}
	for _, tt := range tests {
		if got := Sum([]byte(tt.blob)); got != tt.want {
			t.Errorf("Sum(%q) = %s, want %s", tt.blob, got, tt.want)
		}
	}
}

func TestParseURI(t *testing.T) {
	id := Sum([]byte("trout"))
	tests := []struct {
		uri     string
		want    ContentID
		wantErr bool
	}{
		{"", "", false},
		{"ipfs://", "", false},
		{id.URI(), id, false},
		{"ipfs://bafkabc", "", true},
		{"ipfs://" + string(id) + "/x", "", true},
		{"https://example.com/x", "", true},
	}
	for _, tt := range tests {
		got, err := ParseURI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseURI(%q) err = %v", tt.uri, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidID) {
			t.Errorf("ParseURI(%q) err = %v, want ErrInvalidID", tt.uri, err)
		}
		if got != tt.want {
			t.Errorf("ParseURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
	if got := id.URI(); got != "ipfs://"+string(id) {
		t.Errorf("URI = %q", got)
	}
}

func TestParse(t *testing.T) {
	id := Sum([]byte("hello world"))
	if got, err := Parse(string(id)); err != nil || got != id {
		t.Errorf("Parse(%s) = %s, %v", id, got, err)
	}
	// A CIDv0 keeps its base58 form.
	const v0 = "QmWATWQ7fVPP2EFGu71UkfnqhYXDYH566qy47CnJDgvs8u"
	if got, err := Parse(v0); err != nil || got != v0 {
		t.Errorf("Parse(v0) = %s, %v", got, err)
	}
	for _, bad := range []string{"", "bafkabc", "not a cid", string(id[:len(id)-4])} {
		if _, err := Parse(bad); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidID", bad, err)
		}
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	blob := []byte("trout")
	id, err := m.Store(ctx, blob)
	if err != nil {
		t.Fatal(err)
	}
	if id != Sum(blob) {
		t.Errorf("id = %s, want %s", id, Sum(blob))
	}
	blob[0] = 'X'
	got, err := m.Fetch(ctx, id)
	if err != nil || string(got) != "trout" {
		t.Errorf("Fetch = %q, %v", got, err)
	}
	if _, err := m.Fetch(ctx, "bafkmissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if pinned, _ := m.IsPinned(ctx, id); pinned {
		t.Error("pinned before Pin")
	}
	if err := m.Pin(ctx, id); err != nil {
		t.Fatal(err)
	}
	if pinned, _ := m.IsPinned(ctx, id); !pinned {
		t.Error("not pinned after Pin")
	}
	if err := m.Pin(ctx, "bafkmissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Pin missing err = %v", err)
	}
}

func TestMemoryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Store(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

// kubo is a minimal stand-in for the Kubo RPC API.
type kubo struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	pinned map[string]bool
}

func newKubo(t *testing.T) (*IPFS, *kubo) {
	t.Helper()
	k := &kubo{blobs: map[string][]byte{}, pinned: map[string]bool{}}
	srv := httptest.NewServer(k)
	t.Cleanup(srv.Close)
	c, err := NewIPFS(srv.URL+"/api/v0", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	return c, k
}

func (k *kubo) fail(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{"Message": msg, "Code": 0, "Type": "error"})
}

func (k *kubo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	arg := r.URL.Query().Get("arg")
	switch r.URL.Path {
	case "/api/v0/add":
		if r.URL.Query().Get("cid-version") != "1" || r.URL.Query().Get("raw-leaves") != "true" {
			k.fail(w, "unexpected add options")
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			k.fail(w, err.Error())
			return
		}
		b, _ := io.ReadAll(f)
		id := string(Sum(b))
		k.blobs[id] = b
		k.pinned[id] = true
		_ = json.NewEncoder(w).Encode(map[string]string{"Name": "blob", "Hash": id, "Size": "1"})
	case "/api/v0/cat":
		b, ok := k.blobs[arg]
		if !ok {
			k.fail(w, "block was not found locally (offline)")
			return
		}
		_, _ = w.Write(b)
	case "/api/v0/pin/add":
		if _, ok := k.blobs[arg]; !ok {
			k.fail(w, "block was not found locally (offline)")
			return
		}
		k.pinned[arg] = true
		_ = json.NewEncoder(w).Encode(map[string]any{"Pins": []string{arg}})
	case "/api/v0/pin/ls":
		if !k.pinned[arg] {
			k.fail(w, "path '"+arg+"' is not pinned")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"Keys": map[string]any{arg: map[string]string{"Type": "recursive"}}})
	default:
		k.fail(w, "unknown method")
	}
}

func TestIPFSRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newKubo(t)
	blob := []byte(`{"name":"Hardhat TROUT #1"}`)
	id, err := c.Store(ctx, blob)
	if err != nil {
		t.Fatal(err)
	}
	if id != Sum(blob) {
		t.Errorf("id = %s, want %s", id, Sum(blob))
	}
	got, err := c.Fetch(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("Fetch = %q", got)
	}
}

func TestIPFSNotFound(t *testing.T) {
	c, _ := newKubo(t)
	_, err := c.Fetch(context.Background(), Sum([]byte("missing")))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Method != "cat" || rpcErr.Status != http.StatusInternalServerError {
		t.Errorf("err = %#v", rpcErr)
	}
}

func TestIPFSPins(t *testing.T) {
	ctx := context.Background()
	c, k := newKubo(t)
	k.blobs["bafkother"] = []byte("x")

	pinned, err := c.IsPinned(ctx, "bafkother")
	if err != nil || pinned {
		t.Fatalf("IsPinned before = %v, %v", pinned, err)
	}
	if err := c.Pin(ctx, "bafkother"); err != nil {
		t.Fatal(err)
	}
	pinned, err = c.IsPinned(ctx, "bafkother")
	if err != nil || !pinned {
		t.Errorf("IsPinned after = %v, %v", pinned, err)
	}
	if err := c.Pin(ctx, "bafkmissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Pin missing err = %v", err)
	}
}

// countingStore counts Fetch calls on the wrapped store.
type countingStore struct {
	*Memory
	fetches atomic.Int32
}

func (s *countingStore) Fetch(ctx context.Context, id ContentID) ([]byte, error) {
	s.fetches.Add(1)
	return s.Memory.Fetch(ctx, id)
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	id, _ := mem.Store(ctx, []byte("parent"))
	backing := &countingStore{Memory: mem}
	c := NewCached(backing, 1<<10)

	for range 3 {
		got, err := c.Fetch(ctx, id)
		if err != nil || string(got) != "parent" {
			t.Fatalf("Fetch = %q, %v", got, err)
		}
		got[0] = 'X'
	}
	if n := backing.fetches.Load(); n != 1 {
		t.Errorf("backing fetches = %d, want 1", n)
	}

	child, err := c.Store(ctx, []byte("child"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Fetch(ctx, child); err != nil {
		t.Fatal(err)
	}
	if n := backing.fetches.Load(); n != 1 {
		t.Errorf("stored blob was fetched from backing store")
	}
	if _, err := c.Fetch(ctx, "bafkmissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if st := c.Stats(); st.Hits < 3 {
		t.Errorf("Hits = %d", st.Hits)
	}
}
