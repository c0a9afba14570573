// Package client is a Go SDK for the Krizo REST API. Inputs are validated with the same
// workflow rules the server applies, so invalid calls fail before any network round trip.
package client

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
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/api"
)

// TokenSource returns the bearer token for the next call.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

type Config struct {
	// BaseURL is the API root including the /api prefix, e.g. https://host/api.
	BaseURL    string
	Token      TokenSource
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: hc,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		tok, err := c.token(req.Context())
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Status: resp.StatusCode, Err: err}
	}
	return decodeEnvelope(resp.StatusCode, raw, out)
}

func decodeEnvelope(status int, raw []byte, out interface{}) error {
	var env api.RawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil {
		return &NetworkError{Status: status, Err: errors.New("response without envelope")}
	}
	if !*env.Success {
		return &ApplicationError{Status: status, Code: env.Code, Message: env.Message}
	}
	if status < 200 || status > 299 {
		return &NetworkError{Status: status, Err: errors.New("unexpected status")}
	}
	if out == nil || !env.HasData() {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &NetworkError{Status: status, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func idPath(format string, id uint64) string {
	return fmt.Sprintf(format, id)
}

func query(path string, params url.Values) string {
	if enc := params.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// upload posts a single multipart file field.
func (c *Client) upload(ctx context.Context, path, field, filename string, data []byte, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}
