package pages

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient talks to a remote page service over its JSON API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a page service client
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type createPageResponse struct {
	Success bool   `json:"success"`
	Page    Page   `json:"page"`
	Error   string `json:"error,omitempty"`
}

// CreatePage creates one page via POST /api/v1/pages
func (c *HTTPClient) CreatePage(ctx context.Context, req CreateRequest) (Page, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/pages", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Page{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Page{}, fmt.Errorf("create page failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result createPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Page{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Success {
		return Page{}, fmt.Errorf("page service rejected create: %s", result.Error)
	}
	if result.Page.ID == "" {
		return Page{}, fmt.Errorf("no page ID in response")
	}

	return result.Page, nil
}

// ListPagesByUser lists a user's pages via GET /api/v1/users/{id}/pages
func (c *HTTPClient) ListPagesByUser(ctx context.Context, userID string) ([]Page, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s/pages", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list pages failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Pages []Page `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Pages, nil
}
