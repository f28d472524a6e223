package sweetclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidResponse = errors.New("Invalid response format from server")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status code %d", e.Status)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
	session *SessionStore
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, session *SessionStore, opts ...Option) *Client {
	if session == nil {
		session = NewSessionStore("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *SessionStore { return c.session }

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrInvalidResponse
	}
	return c.session.Save(resp.Token, resp.Username, resp.Role)
}

// Register creates an account. The caller still has to Login.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/register", body, nil)
}

// Logout asks the backend to revoke the token and always drops the local session.
func (c *Client) Logout(ctx context.Context) error {
	var serverErr error
	if c.session.Token() != "" {
		serverErr = c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	}
	if err := c.session.Clear(); err != nil {
		return err
	}
	if errors.Is(serverErr, ErrUnauthorized) {
		return nil
	}
	return serverErr
}

func (c *Client) ListSweets(ctx context.Context) ([]SweetItem, error) {
	return c.listSweets(ctx, "/sweets")
}

func (c *Client) SearchSweets(ctx context.Context, q string) ([]SweetItem, error) {
	return c.listSweets(ctx, "/sweets/search?q="+url.QueryEscape(q))
}

func (c *Client) GetSweet(ctx context.Context, id int64) (*SweetItem, error) {
	var item SweetItem
	if err := c.do(ctx, http.MethodGet, sweetPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) CreateSweet(ctx context.Context, item SweetItem) (*SweetItem, error) {
	var out SweetItem
	if err := c.do(ctx, http.MethodPost, "/sweets", payloadOf(item), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSweet(ctx context.Context, id int64, item SweetItem) (*SweetItem, error) {
	var out SweetItem
	if err := c.do(ctx, http.MethodPut, sweetPath(id), payloadOf(item), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSweet(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, sweetPath(id), nil, nil)
}

func (c *Client) PurchaseSweet(ctx context.Context, id int64, quantity int) (*PurchaseResult, error) {
	var out PurchaseResult
	body := map[string]int{"quantity": quantity}
	if err := c.do(ctx, http.MethodPost, sweetPath(id)+"/purchase", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// listSweets rejects anything but a JSON array and skips null entries.
func (c *Client) listSweets(ctx context.Context, path string) ([]SweetItem, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
		return nil, ErrInvalidResponse
	}

	var entries []*SweetItem
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, ErrInvalidResponse
	}
	items := make([]SweetItem, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			items = append(items, *e)
		}
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorBodyMessage(payload)}
		if resp.StatusCode == http.StatusUnauthorized {
			_ = c.session.Clear()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return ErrInvalidResponse
	}
	return nil
}

// errorBodyMessage prefers "message" over "error" in a JSON error body.
func errorBodyMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// ErrorMessage is the text to show for err, or fallback when err carries none.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func sweetPath(id int64) string {
	return "/sweets/" + strconv.FormatInt(id, 10)
}
