package api

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

	"github.com/google/uuid"

	"github.com/five82/potluck/internal/state"
)

// Service is the subset of the API the screens depend on. *Client
// implements it; tests substitute fakes.
type Service interface {
	FetchFeed(ctx context.Context, cursor string, size int) (state.Page[Recipe], error)
	FetchComments(ctx context.Context, recipeID, cursor string, size int) (state.Page[Comment], error)
	FetchUserRecipes(ctx context.Context, userID, cursor string, size int) (state.Page[Recipe], error)
	FetchCookingLogs(ctx context.Context, userID, cursor string, size int) (state.Page[CookingLog], error)
	SearchRecipes(ctx context.Context, query, cursor string, size int) (state.Page[Recipe], error)
	FetchAdminRecipes(ctx context.Context, cursor string, size int) (state.Page[Recipe], error)
	FetchAdminUsers(ctx context.Context, cursor string, size int) (state.Page[User], error)
	SubmitMutation(ctx context.Context, kind, entityID, action string) error
	SubmitFieldUpdate(ctx context.Context, kind, entityID, field, value string) (json.RawMessage, error)
}

var _ Service = (*Client)(nil)

// StatusError reports a response with status >= 400.
type StatusError struct {
	Status  int
	Path    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Client talks to the recipe API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	requestID func() string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

const (
	defaultAPIBind   = "127.0.0.1:8088"
	defaultUserAgent = "potluck/0.1"
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 512
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchFeed retrieves one page of the home feed.
func (c *Client) FetchFeed(ctx context.Context, cursor string, size int) (state.Page[Recipe], error) {
	return fetchPage[Recipe](ctx, c, apiPath("api", "feed"), pageQuery(cursor, size))
}

// FetchComments retrieves one page of comments on a recipe.
func (c *Client) FetchComments(ctx context.Context, recipeID, cursor string, size int) (state.Page[Comment], error) {
	if strings.TrimSpace(recipeID) == "" {
		return state.Page[Comment]{}, fmt.Errorf("recipe id required")
	}
	return fetchPage[Comment](ctx, c, apiPath("api", KindRecipes, recipeID, "comments"), pageQuery(cursor, size))
}

// FetchUserRecipes retrieves one page of a user's recipes.
func (c *Client) FetchUserRecipes(ctx context.Context, userID, cursor string, size int) (state.Page[Recipe], error) {
	if strings.TrimSpace(userID) == "" {
		return state.Page[Recipe]{}, fmt.Errorf("user id required")
	}
	return fetchPage[Recipe](ctx, c, apiPath("api", KindUsers, userID, "recipes"), pageQuery(cursor, size))
}

// FetchCookingLogs retrieves one page of a user's cooking logs.
func (c *Client) FetchCookingLogs(ctx context.Context, userID, cursor string, size int) (state.Page[CookingLog], error) {
	if strings.TrimSpace(userID) == "" {
		return state.Page[CookingLog]{}, fmt.Errorf("user id required")
	}
	return fetchPage[CookingLog](ctx, c, apiPath("api", KindUsers, userID, KindCookingLogs), pageQuery(cursor, size))
}

// SearchRecipes retrieves one page of recipes matching query.
func (c *Client) SearchRecipes(ctx context.Context, query, cursor string, size int) (state.Page[Recipe], error) {
	values := pageQuery(cursor, size)
	values.Set("q", strings.TrimSpace(query))
	return fetchPage[Recipe](ctx, c, apiPath("api", "search", "recipes"), values)
}

// FetchAdminRecipes retrieves one page of the moderation table.
func (c *Client) FetchAdminRecipes(ctx context.Context, cursor string, size int) (state.Page[Recipe], error) {
	return fetchPage[Recipe](ctx, c, apiPath("api", "admin", KindRecipes), pageQuery(cursor, size))
}

// FetchAdminUsers retrieves one page of the user administration table.
func (c *Client) FetchAdminUsers(ctx context.Context, cursor string, size int) (state.Page[User], error) {
	return fetchPage[User](ctx, c, apiPath("api", "admin", KindUsers), pageQuery(cursor, size))
}

// SubmitMutation posts a toggle action such as like or unfollow.
func (c *Client) SubmitMutation(ctx context.Context, kind, entityID, action string) error {
	if entityID == "" || action == "" {
		return fmt.Errorf("entity id and action required")
	}
	rel := apiPath("api", kind, entityID, "actions")
	return c.doURL(ctx, http.MethodPost, rel, ActionRequest{Action: action}, nil)
}

// SubmitFieldUpdate patches one admin-editable field and returns the
// updated entity as stored by the server.
func (c *Client) SubmitFieldUpdate(ctx context.Context, kind, entityID, field, value string) (json.RawMessage, error) {
	if entityID == "" || field == "" {
		return nil, fmt.Errorf("entity id and field required")
	}
	rel := apiPath("api", "admin", kind, entityID)
	var payload json.RawMessage
	if err := c.doURL(ctx, http.MethodPatch, rel, FieldUpdate{Field: field, Value: value}, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// UpdateRecipeStatus sets a recipe's moderation status.
func (c *Client) UpdateRecipeStatus(ctx context.Context, id, status string) (Recipe, error) {
	return UpdateField[Recipe](ctx, c, KindRecipes, id, "status", status)
}

// UpdateUserRole sets a user's role.
func (c *Client) UpdateUserRole(ctx context.Context, id, role string) (User, error) {
	return UpdateField[User](ctx, c, KindUsers, id, "role", role)
}

// Actions binds SubmitMutation to one entity kind.
func (c *Client) Actions(kind string) ActionSubmitter {
	return ActionSubmitter{svc: c, kind: kind}
}

// ActionSubmitter posts toggle actions for a single entity kind.
type ActionSubmitter struct {
	svc  Service
	kind string
}

// NewActionSubmitter binds any Service to one entity kind.
func NewActionSubmitter(svc Service, kind string) ActionSubmitter {
	return ActionSubmitter{svc: svc, kind: kind}
}

// SubmitMutation forwards to the bound service.
func (a ActionSubmitter) SubmitMutation(ctx context.Context, entityID, action string) error {
	return a.svc.SubmitMutation(ctx, a.kind, entityID, action)
}

// DecodeEntity decodes a SubmitFieldUpdate payload.
func DecodeEntity[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode entity: %w", err)
	}
	return out, nil
}

// UpdateField patches one field through svc and decodes the stored entity.
func UpdateField[T any](ctx context.Context, svc Service, kind, id, field, value string) (T, error) {
	raw, err := svc.SubmitFieldUpdate(ctx, kind, id, field, value)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeEntity[T](raw)
}

func fetchPage[T any](ctx context.Context, c *Client, rel *url.URL, values url.Values) (state.Page[T], error) {
	if c == nil {
		return state.Page[T]{}, fmt.Errorf("client is nil")
	}
	rel.RawQuery = values.Encode()
	var payload PageResponse[T]
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return state.Page[T]{}, err
	}
	return payload.Page(), nil
}

// apiPath joins path segments, escaping each one.
func apiPath(segments ...string) *url.URL {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return &url.URL{
		Path:    "/" + strings.Join(segments, "/"),
		RawPath: "/" + strings.Join(escaped, "/"),
	}
}

func pageQuery(cursor string, size int) url.Values {
	values := url.Values{}
	if cursor != "" {
		values.Set("cursor", cursor)
	}
	if size > 0 {
		values.Set("size", strconv.Itoa(size))
	}
	return values
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", c.requestID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Status: resp.StatusCode, Path: rel.Path, Message: errorMessage(resp.Body)}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload ErrorResponse
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
