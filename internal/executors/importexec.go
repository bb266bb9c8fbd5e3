package executors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	simpleworkflow "github.com/tendant/simple-workflow"

	"github.com/tendant/markdown-import-pipeline/internal/workflows"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// ImportExecutor implements simpleworkflow.WorkflowExecutor so hosts built
// on simple-workflow can run imports without the DBOS runtime.
type ImportExecutor struct {
	workflow *workflows.ImportWorkflow
}

// NewImportExecutor creates a new import executor
func NewImportExecutor(workflow *workflows.ImportWorkflow) *ImportExecutor {
	return &ImportExecutor{workflow: workflow}
}

// Execute implements simpleworkflow.WorkflowExecutor
func (e *ImportExecutor) Execute(ctx context.Context, run *simpleworkflow.WorkflowRun) (interface{}, error) {
	var req importjob.ImportRequest
	if err := json.Unmarshal(run.Payload, &req); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}

	runID := uuid.New().String()
	log.Printf("[%s] Executing import workflow for job_id=%s user=%s", runID, req.JobID, req.UserID)

	wctx := &workflows.WorkflowContext{
		Ctx:     ctx,
		Request: req,
		RunID:   runID,
	}

	result, err := e.workflow.Execute(wctx)
	if err != nil {
		return nil, fmt.Errorf("import workflow failed: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("import workflow returned failure: %v", result.Error)
	}

	log.Printf("[%s] Import workflow completed successfully", runID)

	return map[string]interface{}{
		"run_id":  runID,
		"job_id":  req.JobID,
		"outputs": result.Outputs,
	}, nil
}
