package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/tendant/markdown-import-pipeline/internal/dbosruntime"
	"github.com/tendant/markdown-import-pipeline/internal/workflows"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// Client can enqueue import workflows without executing them.
// Workers must be running separately to process the queue.
type Client struct {
	runtime *dbosruntime.Runtime
	runner  *workflows.WorkflowRunner
}

// NewClient creates an enqueue-only client
func NewClient(cfg Config) (*Client, error) {
	dbosRuntime, err := dbosruntime.NewRuntime(context.Background(), dbosruntime.Config{
		DatabaseURL: cfg.DatabaseURL,
		AppName:     cfg.AppName,
		QueueName:   cfg.QueueName,
		Concurrency: 0, // client mode: don't process workflows
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DBOS: %w", err)
	}

	workflowRunner := workflows.NewWorkflowRunner(dbosRuntime)

	if err := dbosRuntime.Launch(); err != nil {
		return nil, fmt.Errorf("failed to launch DBOS: %w", err)
	}

	return &Client{
		runtime: dbosRuntime,
		runner:  workflowRunner,
	}, nil
}

// RunImport enqueues an import job for workers to execute
func (c *Client) RunImport(ctx context.Context, req importjob.ImportRequest) (string, error) {
	return c.runner.RunAsync(ctx, req)
}

// GetStatus retrieves the status of a previously started import
func (c *Client) GetStatus(ctx context.Context, runID string) (*dbosruntime.WorkflowStatusInfo, error) {
	return c.runner.GetStatus(ctx, runID)
}

// Shutdown gracefully shuts down the client
func (c *Client) Shutdown(timeoutSeconds int) {
	if c.runtime != nil {
		c.runtime.Shutdown(time.Duration(timeoutSeconds) * time.Second)
	}
}
