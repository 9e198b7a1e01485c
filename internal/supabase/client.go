// Package supabase is a minimal PostgREST client for the hosted lead table.
// It supports the one call the service makes: insert a row and read the
// inserted representation back.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-lead-capture/internal/config"
	"github.com/tbourn/go-lead-capture/internal/domain"
)

const (
	maxResponseBytes = 1 << 20

	// defaultTimeout applies when neither an *http.Client nor
	// SUPABASE_TIMEOUT is given.
	defaultTimeout = 30 * time.Second
)

// Error is a PostgREST error response. Error() returns the server message
// unchanged so it can be surfaced to API callers as-is.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("supabase: unexpected status %d", e.StatusCode)
}

// insertRow is the request shape for one lead. Absent fields are omitted so
// column defaults apply; an empty string is sent as "".
type insertRow struct {
	Nombre    *string `json:"nombre,omitempty"`
	Apellido  *string `json:"apellido,omitempty"`
	Telefono  *string `json:"telefono,omitempty"`
	Email     *string `json:"email,omitempty"`
	Direccion *string `json:"direccion,omitempty"`
}

// Client talks to {URL}/rest/v1 with the service key.
type Client struct {
	baseURL string
	key     string
	table   string
	http    *http.Client
}

// New builds a Client from store configuration. When hc is nil a client
// bounded by cfg.Timeout (or defaultTimeout when unset) is used.
func New(cfg config.StoreConfig, hc *http.Client) *Client {
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	table := cfg.Table
	if table == "" {
		table = domain.Lead{}.TableName()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.SupabaseURL, "/"),
		key:     cfg.SupabaseKey,
		table:   table,
		http:    hc,
	}
}

// Name reports the store kind for logs and metrics.
func (c *Client) Name() string { return "supabase" }

// Insert posts one row and returns the inserted rows exactly as PostgREST
// echoes them. Transport failures are returned as-is; HTTP failures come
// back as *Error.
//
// A 2xx means the row is committed, so an echo that is not a JSON array is
// logged and dropped rather than reported as a failed write.
func (c *Client) Insert(ctx context.Context, sub domain.LeadSubmission) ([]domain.Row, error) {
	body, err := json.Marshal([]insertRow{{
		Nombre:    sub.FirstName,
		Apellido:  sub.LastName,
		Telefono:  sub.Phone,
		Email:     sub.Email,
		Direccion: sub.Address,
	}})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/rest/v1/" + url.PathEscape(c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(raw))
		}
		return nil, e
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var rows []domain.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		log.Warn().Err(err).
			Str("component", "supabase").
			Str("table", c.table).
			Int("status", resp.StatusCode).
			Msg("inserted row echo is not a JSON array")
		return nil, nil
	}
	return rows, nil
}
