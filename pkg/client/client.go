package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kurihiro0119/github-org-archive/internal/domain"
)

// Client is the API client for github-org-archive
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListRuns retrieves archive runs, most recent first
func (c *Client) ListRuns(limit int) ([]*domain.Run, error) {
	var response struct {
		Data []*domain.Run `json:"data"`
	}
	if err := c.get("/api/v1/runs", limitParams(limit), &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListOrgRuns retrieves archive runs for one organization
func (c *Client) ListOrgRuns(org string, limit int) ([]*domain.Run, error) {
	path := fmt.Sprintf("/api/v1/orgs/%s/runs", org)

	var response struct {
		Data []*domain.Run `json:"data"`
	}
	if err := c.get(path, limitParams(limit), &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRunRepos retrieves the repository records for one run
func (c *Client) GetRunRepos(runID string) ([]*domain.RepoRecord, error) {
	path := fmt.Sprintf("/api/v1/runs/%s/repos", runID)

	var response struct {
		Data []*domain.RepoRecord `json:"data"`
	}
	if err := c.get(path, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func limitParams(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	return params
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
