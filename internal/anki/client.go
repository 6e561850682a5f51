// Package anki speaks the AnkiConnect wire protocol: one POST endpoint,
// an {action, version, params} request envelope and a {result, error}
// response envelope.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"deckhand/internal/review"
)

const protocolVersion = 6

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke performs one AnkiConnect action. Failures are classified the way
// the review flow reports them: transport failures and HTTP 503 map to
// review.ErrStoreUnreachable so callers can render the connectivity
// checklist, an envelope error becomes a review.CollaboratorError carrying
// the detail verbatim, and anything else stays a plain error.
func (c *Client) invoke(ctx context.Context, action string, params, out any) error {
	body, err := json.Marshal(envelope{Action: action, Version: protocolVersion, Params: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", review.ErrStoreUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: status 503", review.ErrStoreUnreachable)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ankiconnect %s: status %d", action, resp.StatusCode)
	}

	var env response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("ankiconnect %s: decode: %w", action, err)
	}
	if env.Error != nil && *env.Error != "" {
		return &review.CollaboratorError{Detail: *env.Error}
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("ankiconnect %s: result: %w", action, err)
		}
	}
	return nil
}

// CreateDeck creates the destination deck if it does not already exist.
func (c *Client) CreateDeck(ctx context.Context, name string) error {
	return c.invoke(ctx, "createDeck", map[string]string{"deck": name}, nil)
}

// AddNotes pushes the whole batch in one call and returns how many notes
// Anki actually accepted. Rejected notes (typically duplicates) come back
// as nulls in the result array and are not an error.
func (c *Client) AddNotes(ctx context.Context, notes []Note) (int, error) {
	var ids []*int64
	if err := c.invoke(ctx, "addNotes", map[string]any{"notes": notes}, &ids); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if id != nil {
			n++
		}
	}
	return n, nil
}
