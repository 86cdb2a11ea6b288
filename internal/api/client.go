// Package api implements the service.Service interface against the Task
// Manager REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskman/internal/service"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second
)

// Client implements service.Service over HTTP. A Client constructed with a
// token attaches it as a bearer Authorization header on every request; a
// Client constructed without one never sends the header.
type Client struct {
	baseURL string
	http    *http.Client

	// Debug, when non-nil, receives one line per request.
	Debug io.Writer
}

// New creates a client for the given base URL. token may be nil for
// unauthenticated operations (register).
func New(baseURL string, token *oauth2.Token) *Client {
	httpClient := &http.Client{}
	if token != nil {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(token))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Login exchanges username and password for a bearer token via the
// resource-owner password grant against POST {baseURL}/token.
func Login(ctx context.Context, baseURL, username, password string) (*oauth2.Token, error) {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(baseURL, "/") + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	token, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			status := retrieveErr.Response.StatusCode
			kind := KindNetwork
			if status == http.StatusBadRequest || status == http.StatusUnauthorized {
				kind = KindAuth
			}
			return nil, &Error{
				Kind:   kind,
				Status: status,
				Detail: extractDetail(retrieveErr.Body),
				Err:    err,
			}
		}
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	return token, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (service.Profile, error) {
	var profile service.Profile
	if err := c.do(ctx, http.MethodGet, "/users/me/", nil, &profile); err != nil {
		return service.Profile{}, err
	}
	return profile, nil
}

// Register creates a new account. Duplicate username or email is reported
// as a conflict.
func (c *Client) Register(ctx context.Context, username, email, password string) (service.Profile, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	var profile service.Profile
	if err := c.do(ctx, http.MethodPost, "/users/", body, &profile); err != nil {
		// The server reports duplicates as 400 with a detail message.
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			apiErr.Kind = KindConflict
		}
		return service.Profile{}, err
	}
	return profile, nil
}

// ListTasks returns all of the session's tasks in server order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a single task by id.
func (c *Client) GetTask(ctx context.Context, id int64) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// CreateTask creates a task. An empty title never reaches the network.
func (c *Client) CreateTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return service.Task{}, &Error{Kind: KindValidation, Detail: "title required"}
	}
	var task service.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/", t, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update. Nil patch fields are left unchanged.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return service.Task{}, &Error{Kind: KindValidation, Detail: "title required"}
	}
	var task service.Task
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), patch, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes a task by id.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

// do performs one request with a per-call timeout and decodes a JSON
// response into dst when dst is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if c.Debug != nil {
		fmt.Fprintf(c.Debug, "taskman: %s %s -> %d\n", method, path, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}

	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: err}
		}
	}
	return nil
}

// statusError converts a non-success response into a typed error.
func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var kind Kind
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuth
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusConflict:
		kind = KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	default:
		kind = KindNetwork
	}

	return &Error{
		Kind:   kind,
		Status: resp.StatusCode,
		Detail: extractDetail(data),
	}
}

// extractDetail pulls the "detail" message out of an error body, if any.
func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
