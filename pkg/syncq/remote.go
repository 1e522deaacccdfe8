package syncq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPRemote replays queue entries against the server's generic data
// endpoints.
type HTTPRemote struct {
	baseURL  string
	apiKey   string
	tenantID string
	clientID string
	client   *http.Client
}

// NewHTTPRemote creates a remote for one tenant. clientID identifies this
// installation in server logs; the queue's ClientID is the usual source.
func NewHTTPRemote(baseURL, apiKey, tenantID, clientID string, timeout time.Duration) *HTTPRemote {
	return &HTTPRemote{
		baseURL:  baseURL,
		apiKey:   apiKey,
		tenantID: tenantID,
		clientID: clientID,
		client:   &http.Client{Timeout: timeout},
	}
}

// Ping checks server reachability via the public health endpoint.
func (r *HTTPRemote) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/v1/health", nil)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

// Apply replays one queued write. Replays are made idempotent at this
// layer: an insert that conflicts or a delete whose row is already gone
// counts as applied, so a retried pass never wedges on its own earlier
// half-success.
func (r *HTTPRemote) Apply(ctx context.Context, e Entry) error {
	var method, path string
	var body io.Reader

	switch e.Operation {
	case OpInsert:
		method = http.MethodPost
		path = "/api/v1/data/" + url.PathEscape(e.Table)
		body = bytes.NewReader(e.Payload)
	case OpUpdate:
		key, err := e.payloadKey()
		if err != nil {
			return err
		}
		method = http.MethodPut
		path = "/api/v1/data/" + url.PathEscape(e.Table) + "/" + url.PathEscape(key)
		body = bytes.NewReader(e.Payload)
	case OpDelete:
		key, err := e.payloadKey()
		if err != nil {
			return err
		}
		method = http.MethodDelete
		path = "/api/v1/data/" + url.PathEscape(e.Table) + "/" + url.PathEscape(key)
	default:
		return fmt.Errorf("unknown operation %q", e.Operation)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("X-Locauto-Tenant", r.tenantID)
	req.Header.Set("X-Locauto-Key-Field", e.KeyField)
	if r.clientID != "" {
		req.Header.Set("X-Locauto-Client", r.clientID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict && e.Operation == OpInsert:
		return nil
	case resp.StatusCode == http.StatusNotFound && e.Operation == OpDelete:
		return nil
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: server returned %d: %s", method, path, resp.StatusCode, detail)
	}
}

// payloadKey extracts the entry's key value from its payload. Numbers are
// decoded as json.Number so a numeric key keeps its literal digits instead
// of going through float64.
func (e Entry) payloadKey() (string, error) {
	dec := json.NewDecoder(bytes.NewReader(e.Payload))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	key, ok := fields[e.KeyField]
	if !ok {
		return "", fmt.Errorf("payload missing key field %q", e.KeyField)
	}
	return fmt.Sprintf("%v", key), nil
}
