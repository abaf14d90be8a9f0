package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/trouthatch/trout"
)

// DefaultIPFSEndpoint is the RPC address of a local Kubo node.
const DefaultIPFSEndpoint = "http://127.0.0.1:5001/api/v0/"

// IPFS is a client for the Kubo RPC API. Blobs are added as CIDv1 raw
// leaves, so for blobs that fit one block the returned id equals Sum.
type IPFS struct {
	endpoint *url.URL
	client   *http.Client
}

// RPCError is an error response from the node.
type RPCError struct {
	Method  string
	Status  int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("ipfs %s: %d %s", e.Method, e.Status, e.Message)
}

// NewIPFS returns a client for the node at endpoint. A nil client uses
// http.DefaultClient.
func NewIPFS(endpoint string, client *http.Client) (*IPFS, error) {
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("storage: parse ipfs endpoint: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &IPFS{endpoint: u, client: client}, nil
}

// Store implements Store with the add method and pins the result.
func (c *IPFS) Store(ctx context.Context, blob []byte) (ContentID, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "blob")
	if err != nil {
		return "", fmt.Errorf("storage: build add request: %w", err)
	}
	if _, err := fw.Write(blob); err != nil {
		return "", fmt.Errorf("storage: build add request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("storage: build add request: %w", err)
	}
	q := url.Values{
		"cid-version": {"1"},
		"raw-leaves":  {"true"},
		"pin":         {"true"},
	}
	resp, err := c.call(ctx, "add", q, &body, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var added struct {
		Hash string `json:"Hash"`
		Size string `json:"Size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", fmt.Errorf("storage: decode add response: %w", err)
	}
	id, err := Parse(added.Hash)
	if err != nil {
		return "", err
	}
	trout.Logger().Debug("ipfs add", "cid", id, "size", humanize.Bytes(uint64(len(blob))))
	return id, nil
}

// Fetch implements Store with the cat method.
func (c *IPFS) Fetch(ctx context.Context, id ContentID) ([]byte, error) {
	if _, err := Parse(string(id)); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, "cat", url.Values{"arg": {string(id)}}, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", id, err)
	}
	return b, nil
}

// Pin implements Pinner.
func (c *IPFS) Pin(ctx context.Context, id ContentID) error {
	resp, err := c.call(ctx, "pin/add", url.Values{"arg": {string(id)}}, nil, "")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// IsPinned implements Pinner. The node reports unpinned content as an
// error, which is translated to false.
func (c *IPFS) IsPinned(ctx context.Context, id ContentID) (bool, error) {
	resp, err := c.call(ctx, "pin/ls", url.Values{"arg": {string(id)}}, nil, "")
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) &&
			(strings.Contains(rpcErr.Message, "is not pinned") || strings.Contains(rpcErr.Message, "invalid path")) {
			return false, nil
		}
		return false, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return true, resp.Body.Close()
}

// call POSTs to the RPC method. Non-2xx responses are turned into an
// *RPCError, wrapping ErrNotFound when the node says so.
func (c *IPFS) call(ctx context.Context, method string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := c.endpoint.JoinPath(method)
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("storage: build %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: ipfs %s: %w", method, err)
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer resp.Body.Close()

	rpcErr := &RPCError{Method: method, Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var msg struct {
		Message string `json:"Message"`
	}
	if json.Unmarshal(raw, &msg) == nil && msg.Message != "" {
		rpcErr.Message = msg.Message
	} else {
		rpcErr.Message = strings.TrimSpace(string(raw))
	}
	if strings.Contains(rpcErr.Message, "not found") {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, rpcErr)
	}
	return nil, rpcErr
}
