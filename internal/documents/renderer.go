package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrRenderUnavailable is returned when the rendering service could not
// produce a document within the configured attempt budget.
var ErrRenderUnavailable = errors.New("document rendering unavailable")

// maxDocumentSize caps the size of a rendered PDF accepted from the
// rendering service.
const maxDocumentSize = 32 << 20 // 32 MiB

// Renderer produces a PDF from a named template and a payload.
type Renderer interface {
	Render(ctx context.Context, template string, payload any) ([]byte, error)
}

// HTTPRenderer renders documents through an external HTTP rendering
// service. Transient failures (network errors, 5xx responses) are retried
// with fibonacci backoff up to maxAttempts.
type HTTPRenderer struct {
	client      *http.Client
	baseURL     string
	maxAttempts int
}

// NewHTTPRenderer creates a renderer against the given service base URL.
func NewHTTPRenderer(baseURL string, timeout time.Duration, maxAttempts int) *HTTPRenderer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &HTTPRenderer{
		client:      &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		maxAttempts: maxAttempts,
	}
}

// Render posts the payload to the rendering service and returns the PDF
// bytes. 4xx responses fail immediately: the payload will not get better
// on retry.
func (r *HTTPRenderer) Render(ctx context.Context, template string, payload any) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"template": template,
		"data":     payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(r.maxAttempts-1), retry.NewFibonacci(500*time.Millisecond))

	var pdf []byte
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var attemptErr error
		pdf, attemptErr = r.renderOnce(ctx, body)
		return attemptErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderUnavailable, err)
	}
	return pdf, nil
}

func (r *HTTPRenderer) renderOnce(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		pdf, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
		if err != nil {
			return nil, retry.RetryableError(fmt.Errorf("read rendered document: %w", err))
		}
		return pdf, nil
	case resp.StatusCode >= 500:
		return nil, retry.RetryableError(fmt.Errorf("render service returned %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("render service rejected request with %d", resp.StatusCode)
	}
}
