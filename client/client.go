// Package client is a typed HTTP client for the clearance API. Reads are
// served through a Cache and writes invalidate the affected resource prefixes.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
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

const (
	apiPrefix  = "/api/v1"
	defaultTTL = 30 * time.Second

	prefixAdminStudents      = "/admin/students"
	prefixAdminNotifications = "/admin/notifications"
	prefixStudents           = "/students"
	prefixNotifications      = "/notifications"
)

// APIError is a non-2xx response decoded from the standard error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Cache      Cache
	TTL        time.Duration
}

// Client talks to a clearance API server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      Cache
	ttl        time.Duration
	identity   string
}

// New creates a Client. A nil Cache gets a MemoryCache.
func New(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: opts.HTTPClient,
		cache:      opts.Cache,
		ttl:        opts.TTL,
		identity:   tokenIdentity(opts.Token),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.cache == nil {
		c.cache = NewMemoryCache(nil)
	}
	if c.ttl <= 0 {
		c.ttl = defaultTTL
	}
	return c
}

// GetStudent fetches a student by any admin lookup key.
func (c *Client) GetStudent(ctx context.Context, key string) (*Student, error) {
	var out Student
	if err := c.cachedGet(ctx, prefixAdminStudents+"/"+url.PathEscape(key), &out); err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &out, nil
}

// ListStudents fetches one page of students, optionally filtered by search.
func (c *Client) ListStudents(ctx context.Context, search string, limit, offset int) (*StudentPage, error) {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := prefixAdminStudents
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out StudentPage
	if err := c.cachedGet(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return &out, nil
}

// Verify runs the public certificate check.
func (c *Client) Verify(ctx context.Context, key string) (*Verification, error) {
	var out Verification
	if err := c.cachedGet(ctx, prefixStudents+"/verify/"+url.PathEscape(key), &out); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	return &out, nil
}

// MyStudent fetches the signed-in student's own record.
func (c *Client) MyStudent(ctx context.Context) (*Student, error) {
	var out Student
	if err := c.cachedGet(ctx, prefixStudents+"/me", &out); err != nil {
		return nil, fmt.Errorf("my student: %w", err)
	}
	return &out, nil
}

// ListNotifications fetches the signed-in student's notifications.
func (c *Client) ListNotifications(ctx context.Context) (*Inbox, error) {
	var out Inbox
	if err := c.cachedGet(ctx, prefixNotifications, &out); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return &out, nil
}

// CreateStudent registers a student.
func (c *Client) CreateStudent(ctx context.Context, in CreateStudentInput) (*Student, error) {
	var out Student
	if err := c.do(ctx, http.MethodPost, prefixAdminStudents, in, &out); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	c.invalidate(prefixAdminStudents)
	return &out, nil
}

// UpdateStatus applies a partial clearance status update.
func (c *Client) UpdateStatus(ctx context.Context, key string, upd StatusUpdate) (*Student, error) {
	var out Student
	path := prefixAdminStudents + "/" + url.PathEscape(key) + "/status"
	if err := c.do(ctx, http.MethodPut, path, upd, &out); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	c.invalidate(prefixAdminStudents, prefixStudents, prefixNotifications, prefixAdminNotifications)
	return &out, nil
}

// DeleteStudent removes a student and everything attached to it.
func (c *Client) DeleteStudent(ctx context.Context, key string) error {
	if err := c.do(ctx, http.MethodDelete, prefixAdminStudents+"/"+url.PathEscape(key), nil, nil); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	c.invalidate(prefixAdminStudents, prefixStudents, prefixNotifications, prefixAdminNotifications)
	return nil
}

// CreateNotification sends an admin notification to a student.
func (c *Client) CreateNotification(ctx context.Context, in NotificationInput) (*Notification, error) {
	var out Notification
	if err := c.do(ctx, http.MethodPost, prefixAdminNotifications, in, &out); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	c.invalidate(prefixNotifications, prefixAdminNotifications)
	return &out, nil
}

// MarkNotificationRead flags one of the signed-in student's notifications.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPatch, prefixNotifications+"/"+url.PathEscape(id)+"/read", nil, nil); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	c.invalidate(prefixNotifications)
	return nil
}

// invalidate drops the prefixes for every identity cached against this server.
func (c *Client) invalidate(prefixes ...string) {
	for _, p := range prefixes {
		c.cache.InvalidatePrefix(c.baseURL + p)
	}
}

// cacheKey scopes path to the server and the caller's token, so clients
// sharing a Cache never see each other's responses.
func (c *Client) cacheKey(path string) string {
	return c.baseURL + path + "#" + c.identity
}

func tokenIdentity(token string) string {
	if token == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func (c *Client) cachedGet(ctx context.Context, path string, out any) error {
	key := c.cacheKey(path)
	if body, ok := c.cache.Get(key); ok {
		return json.Unmarshal(body, out)
	}
	body, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.cache.Set(key, body, c.ttl)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}
	body, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}

func decodeError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
