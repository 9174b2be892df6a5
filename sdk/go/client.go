package ritechsdk

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

// Client is a minimal RiTech HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ClientRecord represents the API client model (partial).
type ClientRecord struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CreatedAt      int64  `json:"created_at"`
	Score          int64  `json:"score"`
	ActiveSites    int    `json:"active_sites"`
	NeedsAttention bool   `json:"needs_attention"`
}

// Site represents the API site model (partial).
type Site struct {
	ID             string `json:"id"`
	ClientID       string `json:"client_id"`
	Name           string `json:"name"`
	ClientName     string `json:"client_name"`
	Score          int64  `json:"score"`
	ActiveJobs     int    `json:"active_jobs"`
	NeedsAttention bool   `json:"needs_attention"`
}

// Job represents the API job model (partial).
type Job struct {
	ID          string `json:"id"`
	SiteID      string `json:"site_id"`
	ClientName  string `json:"client_name"`
	SiteName    string `json:"site_name"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Description string `json:"description"`
	OfferRef    string `json:"offer_ref,omitempty"`
	IsPriority  bool   `json:"is_priority"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Score       int64  `json:"score"`
}

// Dashboard carries the global counters and the priority list.
type Dashboard struct {
	OpenJobs     int   `json:"open_jobs"`
	ValidSites   int   `json:"valid_sites"`
	PriorityJobs []Job `json:"priority_jobs"`
}

// Event represents a log entry.
type Event struct {
	ID          int64  `json:"id"`
	TS          string `json:"ts"`
	Type        string `json:"type"`
	EntityKind  string `json:"entity_kind"`
	EntityID    string `json:"entity_id,omitempty"`
	ActorID     string `json:"actor_id"`
	PayloadJSON string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login mints a development token and stores it on the client.
func (c *Client) Login(ctx context.Context, actorID string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "v1/auth/dev/login", map[string]any{"actor_id": actorID}, &resp); err != nil {
		return err
	}
	c.BearerToken = resp.Token
	return nil
}

// Clients lists clients ordered by urgency.
func (c *Client) Clients(ctx context.Context, q string) ([]ClientRecord, error) {
	var resp []ClientRecord
	err := c.do(ctx, http.MethodGet, withQuery("v1/clients", map[string]string{"q": q}), nil, &resp)
	return resp, err
}

// CreateClient creates a client.
func (c *Client) CreateClient(ctx context.Context, name string) (ClientRecord, error) {
	var resp ClientRecord
	err := c.do(ctx, http.MethodPost, "v1/clients", map[string]any{"name": name}, &resp)
	return resp, err
}

// RenameClient changes a client's name.
func (c *Client) RenameClient(ctx context.Context, id, name string) error {
	endpoint := "v1/clients/" + url.PathEscape(id)
	return c.do(ctx, http.MethodPatch, endpoint, map[string]any{"name": name}, nil)
}

// DeleteClient removes a client and all its descendants.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v1/clients/"+url.PathEscape(id), nil, nil)
}

// Sites lists sites, optionally scoped to one client.
func (c *Client) Sites(ctx context.Context, clientID, q string) ([]Site, error) {
	var resp []Site
	err := c.do(ctx, http.MethodGet, withQuery("v1/sites", map[string]string{"client_id": clientID, "q": q}), nil, &resp)
	return resp, err
}

// CreateSite creates a site under a client.
func (c *Client) CreateSite(ctx context.Context, clientID, name string) (Site, error) {
	var resp Site
	err := c.do(ctx, http.MethodPost, "v1/sites", map[string]any{"client_id": clientID, "name": name}, &resp)
	return resp, err
}

// DeleteSite removes a site and its jobs.
func (c *Client) DeleteSite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v1/sites/"+url.PathEscape(id), nil, nil)
}

// Jobs lists jobs, optionally scoped to one site.
func (c *Client) Jobs(ctx context.Context, siteID, q string) ([]Job, error) {
	var resp []Job
	err := c.do(ctx, http.MethodGet, withQuery("v1/jobs", map[string]string{"site_id": siteID, "q": q}), nil, &resp)
	return resp, err
}

// CreateJob creates a job under a site.
func (c *Client) CreateJob(ctx context.Context, siteID, description string, fields map[string]any) (Job, error) {
	body := map[string]any{
		"site_id":     siteID,
		"description": description,
	}
	for k, v := range fields {
		body[k] = v
	}
	var resp Job
	err := c.do(ctx, http.MethodPost, "v1/jobs", body, &resp)
	return resp, err
}

// UpdateJob patches job fields.
func (c *Client) UpdateJob(ctx context.Context, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, "v1/jobs/"+url.PathEscape(id), fields, nil)
}

// SetJobStatus changes a job's status.
func (c *Client) SetJobStatus(ctx context.Context, id, status string) error {
	endpoint := fmt.Sprintf("v1/jobs/%s/status", url.PathEscape(id))
	return c.do(ctx, http.MethodPost, endpoint, map[string]any{"status": status}, nil)
}

// DeleteJob removes a single job.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v1/jobs/"+url.PathEscape(id), nil, nil)
}

// Dashboard returns the global counters and priority list.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var resp Dashboard
	err := c.do(ctx, http.MethodGet, "v1/dashboard", nil, &resp)
	return resp, err
}

// Report returns the job list for a printable report kind.
func (c *Client) Report(ctx context.Context, kind string) ([]Job, error) {
	var resp []Job
	err := c.do(ctx, http.MethodGet, "v1/reports/"+url.PathEscape(kind), nil, &resp)
	return resp, err
}

// Events returns recent audit events.
func (c *Client) Events(ctx context.Context, n int) ([]Event, error) {
	endpoint := "v1/events"
	if n > 0 {
		endpoint = fmt.Sprintf("%s?n=%d", endpoint, n)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func withQuery(endpoint string, params map[string]string) string {
	vals := url.Values{}
	for k, v := range params {
		if v != "" {
			vals.Set(k, v)
		}
	}
	if len(vals) == 0 {
		return endpoint
	}
	return endpoint + "?" + vals.Encode()
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
