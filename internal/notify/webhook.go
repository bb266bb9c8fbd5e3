package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// WebhookNotifier delivers import notifications as JSON POSTs to a
// configured endpoint.
type WebhookNotifier struct {
	endpoint   string
	httpClient *http.Client
}

// NewWebhookNotifier creates a webhook-backed notifier
func NewWebhookNotifier(endpoint string) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type notification struct {
	Event   string                   `json:"event"`
	UserID  string                   `json:"user_id"`
	JobID   string                   `json:"job_id,omitempty"`
	Reason  string                   `json:"reason,omitempty"`
	Summary *importjob.ImportSummary `json:"summary,omitempty"`
}

// NotifyComplete sends the import.complete event carrying the summary
func (n *WebhookNotifier) NotifyComplete(ctx context.Context, userID string, summary importjob.ImportSummary) error {
	return n.post(ctx, notification{
		Event:   "import.complete",
		UserID:  userID,
		Summary: &summary,
	})
}

// NotifyFailed sends the import.failed event tagged with the job id
func (n *WebhookNotifier) NotifyFailed(ctx context.Context, userID, jobID, reason string) error {
	return n.post(ctx, notification{
		Event:  "import.failed",
		UserID: userID,
		JobID:  jobID,
		Reason: reason,
	})
}

func (n *WebhookNotifier) post(ctx context.Context, payload notification) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}
