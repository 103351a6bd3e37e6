package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Config holds Elasticsearch connection settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
}

// Client is a thin wrapper over the official transport. It knows nothing
// about deals; callers hand it document bodies and SearchRequest trees.
type Client struct {
	es *elasticsearch.Client
}

// NewClient creates an Elasticsearch client.
func NewClient(cfg Config) (*Client, error) {
	cl, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: cl}, nil
}

// WaitForReady pings the cluster until it responds or the timeout elapses.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
		if err == nil {
			drain(res)
			if !res.IsError() {
				return nil
			}
		}
		if time.Now().After(deadline) {
			if err != nil {
				return fmt.Errorf("elasticsearch not ready: %w", err)
			}
			return fmt.Errorf("elasticsearch not ready: status %d", res.StatusCode)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// Ping issues a single cluster ping.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	drain(res)
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: status %d", res.StatusCode)
	}
	return nil
}

// IndexDocument upserts a document body under the given id.
func (c *Client) IndexDocument(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return &Error{Op: OpIndex, Err: err}
	}

	res, err := c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return &Error{Op: OpIndex, Err: err}
	}
	defer drain(res)

	if res.IsError() {
		return &Error{Op: OpIndex, Err: fmt.Errorf("status %d", res.StatusCode)}
	}
	return nil
}

// DeleteDocument removes a document by id. A missing document is reported as
// ErrDocMissing so callers can decide whether to tolerate it.
func (c *Client) DeleteDocument(ctx context.Context, index, id string) error {
	res, err := c.es.Delete(index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return &Error{Op: OpDelete, Err: err}
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return &Error{Op: OpDelete, Err: ErrDocMissing}
	}
	if res.IsError() {
		return &Error{Op: OpDelete, Err: fmt.Errorf("status %d", res.StatusCode)}
	}
	return nil
}

// Search executes a search request against the index and parses the response.
func (c *Client) Search(ctx context.Context, index string, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Op: OpSearch, Err: err}
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, &Error{Op: OpSearch, Err: err}
	}
	defer drain(res)

	if res.IsError() {
		return nil, &Error{Op: OpSearch, Err: fmt.Errorf("status %d", res.StatusCode)}
	}

	parsed, err := ParseSearchResponse(res.Body)
	if err != nil {
		return nil, &Error{Op: OpSearch, Err: err}
	}
	return parsed, nil
}

func drain(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
