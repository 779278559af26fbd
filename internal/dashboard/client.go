// Package dashboard calls the HTTP operations of the agent runtime: project
// listing, session create/delete, diff fetch and plan execution.
package dashboard

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
)

// StatusError is returned when the runtime answers with a non-2xx status.
type StatusError struct {
	Op     string
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: runtime returned %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: runtime returned %d", e.Op, e.Status)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type CreatedSession struct {
	ID      string `json:"agent_id"`
	Project string `json:"project"`
	Mode    string `json:"mode"`
}

// Diff is the runtime's view of uncommitted changes in a session's project.
type Diff struct {
	Stat   string `json:"stat"`
	Diff   string `json:"diff"`
	Status string `json:"status"`
}

func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	var resp struct {
		Projects []string `json:"projects"`
	}
	if err := c.do(ctx, "list projects", http.MethodGet, "/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

func (c *Client) CreateSession(ctx context.Context, project, mode string) (CreatedSession, error) {
	body := map[string]string{"project": project, "mode": mode}
	var resp CreatedSession
	if err := c.do(ctx, "create session", http.MethodPost, "/agents", body, &resp); err != nil {
		return CreatedSession{}, err
	}
	if resp.ID == "" {
		return CreatedSession{}, fmt.Errorf("create session: runtime returned no id")
	}
	return resp, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, "delete session", http.MethodDelete, "/agents/"+url.PathEscape(id), nil, nil)
}

func (c *Client) FetchDiff(ctx context.Context, id string) (Diff, error) {
	var d Diff
	err := c.do(ctx, "fetch diff", http.MethodGet, "/agents/"+url.PathEscape(id)+"/diff", nil, &d)
	return d, err
}

func (c *Client) ExecutePlan(ctx context.Context, id string) error {
	return c.do(ctx, "execute plan", http.MethodPost, "/agents/"+url.PathEscape(id)+"/execute", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Status: resp.StatusCode, Detail: detail(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// detail pulls the message out of a {"detail": "..."} error body.
func detail(body []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if s, ok := e.Detail.(string); ok {
			return s
		}
	}
	return strings.TrimSpace(string(body))
}
