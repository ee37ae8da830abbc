// internal/client/client.go

// Package client is the HTTP adapter a terminal or desktop frontend
// uses to drive the session manager against a running accord server.
// It implements both session.Gateway and session.ProfileStore.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/accord/internal/session"
	"go.uber.org/zap"
)

// APIError is a non-2xx response from the server, carrying the
// client-safe message from the error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Client talks to the accord HTTP API. It holds the bearer token for
// the current session and emits session changes to subscribers in the
// order the operations complete.
type Client struct {
	base   string
	http   *http.Client
	log    *zap.Logger
	tokens TokenStore

	mu    sync.Mutex
	token string
	subs  []chan session.Change

	// emitMu serializes change delivery so subscribers observe sign-in
	// and sign-out events in operation order.
	emitMu    sync.Mutex
	probeOnce sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore persists the bearer token across runs.
func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the server at baseURL. A persisted token, if
// a TokenStore is configured and holds one, is picked up immediately;
// its validity is settled by the bootstrap probe.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens != nil {
		if tok, err := c.tokens.Load(); err == nil && tok != "" {
			c.token = tok
		}
	}
	return c
}

var (
	_ session.Gateway      = (*Client)(nil)
	_ session.ProfileStore = (*Client)(nil)
)

// SignInWithPassword implements session.Gateway.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (session.Identity, error) {
	ident, err := c.authenticate(ctx, "/api/auth/signin", email, password)
	if err != nil {
		return session.Identity{}, err
	}
	c.emit(session.Change{Identity: &ident})
	return ident, nil
}

// SignUp implements session.Gateway. The minted identity's token is
// held so the register flow can create the profile records, but no
// session change is emitted; the manager settles the session itself
// once the records exist.
func (c *Client) SignUp(ctx context.Context, email, password string) (session.Identity, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password)
}

// SignOut implements session.Gateway. The local session ends even when
// the server call fails; the error is still returned.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
	c.setToken("")
	c.emit(session.Change{})
	return err
}

// Subscribe implements session.Gateway. The first subscription triggers
// the bootstrap probe, which resolves whether a persisted token still
// names a live session and emits the answer as the first change.
func (c *Client) Subscribe() (<-chan session.Change, func()) {
	ch := make(chan session.Change, 16)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	c.probeOnce.Do(func() { go c.probe() })

	cancel := func() {
		// Taking emitMu keeps the close from racing an in-flight emit.
		c.emitMu.Lock()
		defer c.emitMu.Unlock()
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s == ch {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// GetProfile implements session.ProfileStore. A 404 means no record
// exists yet and is not an error.
func (c *Client) GetProfile(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := c.do(ctx, http.MethodGet, "/api/profiles/"+id, nil, &u)
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertProfile implements session.ProfileStore. The server keys the
// record by the authenticated identity, so only the editable fields
// travel.
func (c *Client) InsertProfile(ctx context.Context, u models.User) (models.User, error) {
	body := map[string]any{
		"name":       u.Name,
		"bio":        u.Bio,
		"interests":  u.Interests,
		"avatar_url": u.AvatarURL,
	}
	var created models.User
	if err := c.do(ctx, http.MethodPost, "/api/profiles", body, &created); err != nil {
		return models.User{}, err
	}
	return created, nil
}

// InsertDashboardStats implements session.ProfileStore.
func (c *Client) InsertDashboardStats(ctx context.Context, _ models.DashboardStats) error {
	return c.do(ctx, http.MethodPost, "/api/profiles/me/stats", nil, nil)
}

// Dashboard fetches the aggregated home-screen payload.
func (c *Client) Dashboard(ctx context.Context, out any) error {
	return c.do(ctx, http.MethodGet, "/api/dashboard", nil, out)
}

// probe resolves the bootstrap state: an unauthenticated answer, an
// expired token, or a live session, emitted as the first change.
func (c *Client) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var resp struct {
		Authenticated bool `json:"authenticated"`
		User          *struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &resp); err != nil {
		c.log.Warn("session probe failed, treating as signed out", zap.Error(err))
		c.setToken("")
		c.emit(session.Change{})
		return
	}

	if !resp.Authenticated || resp.User == nil {
		c.setToken("")
		c.emit(session.Change{})
		return
	}
	c.emit(session.Change{Identity: &session.Identity{ID: resp.User.ID, Email: resp.User.Email}})
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (session.Identity, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return session.Identity{}, err
	}
	c.setToken(resp.Token)
	return session.Identity{ID: resp.User.ID, Email: resp.User.Email}, nil
}

// do sends one API request with the current bearer token and decodes
// the JSON response into out when provided.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.currentToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope)
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	if c.tokens == nil {
		return
	}
	var err error
	if tok == "" {
		err = c.tokens.Clear()
	} else {
		err = c.tokens.Save(tok)
	}
	if err != nil {
		c.log.Warn("persist token", zap.Error(err))
	}
}

// emit delivers a change to every subscriber in registration order.
func (c *Client) emit(change session.Change) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	subs := append([]chan session.Change(nil), c.subs...)
	c.mu.Unlock()

	for _, ch := range subs {
		ch <- change
	}
}
