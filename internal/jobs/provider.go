package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProvider generates images by POSTing the prompt to an external
// image service.
type HTTPProvider struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *HTTPProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	body, _ := json.Marshal(map[string]string{"prompt": prompt})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image provider: status %d", resp.StatusCode)
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("image provider read: %w", err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("image provider returned empty body")
	}
	return img, nil
}
