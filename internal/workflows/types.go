package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dbos-inc/dbos-transact-golang/dbos"

	"github.com/tendant/markdown-import-pipeline/internal/dbosruntime"
	"github.com/tendant/markdown-import-pipeline/pkg/importjob"
)

// WorkflowContext carries one workflow execution.
// DBOS is nil in standalone mode; steps then run inline without checkpoints.
type WorkflowContext struct {
	Ctx     context.Context
	DBOS    dbos.DBOSContext
	Request importjob.ImportRequest
	RunID   string
}

// WorkflowResult contains the result of workflow execution
type WorkflowResult struct {
	Success bool
	Error   error
	Outputs map[string]interface{}
}

// Workflow defines the interface for import workflows
type Workflow interface {
	// Execute runs the workflow
	Execute(wctx *WorkflowContext) (*WorkflowResult, error)

	// Name returns the workflow name
	Name() string
}

// WorkflowRunner executes workflows, durably through DBOS when a runtime is
// attached.
type WorkflowRunner struct {
	workflows   map[string]Workflow
	dbosRuntime *dbosruntime.Runtime
}

// NewWorkflowRunner creates a new workflow runner. Pass nil for standalone
// (non-durable) execution.
func NewWorkflowRunner(dbosRuntime *dbosruntime.Runtime) *WorkflowRunner {
	runner := &WorkflowRunner{
		workflows:   make(map[string]Workflow),
		dbosRuntime: dbosRuntime,
	}

	if dbosRuntime != nil {
		dbos.RegisterWorkflow(dbosRuntime.Context(), runner.executeWorkflowDBOS)
	}

	return runner
}

// Register registers a workflow under a job type
func (r *WorkflowRunner) Register(job string, workflow Workflow) {
	r.workflows[job] = workflow
}

// Run executes a workflow synchronously without durability.
// Used by standalone mode and tests.
func (r *WorkflowRunner) Run(wctx *WorkflowContext, job string) (*WorkflowResult, error) {
	workflow, ok := r.workflows[job]
	if !ok {
		return &WorkflowResult{
			Success: false,
			Error:   ErrWorkflowNotFound,
		}, ErrWorkflowNotFound
	}

	return workflow.Execute(wctx)
}

// RunAsync enqueues an import workflow for durable execution via DBOS
func (r *WorkflowRunner) RunAsync(ctx context.Context, req importjob.ImportRequest) (string, error) {
	if r.dbosRuntime == nil {
		return "", errors.New("DBOS runtime not initialized")
	}

	// Workflow ID doubles as the idempotency key for the enqueue
	workflowID := fmt.Sprintf("%s-%s-%d", importjob.JobPageImport, req.JobID, time.Now().UnixNano())

	handle, err := dbos.RunWorkflow[importjob.ImportRequest, *WorkflowResult](
		r.dbosRuntime.Context(),
		r.executeWorkflowDBOS,
		req,
		dbos.WithWorkflowID(workflowID),
		dbos.WithQueue(r.dbosRuntime.QueueName()),
	)
	if err != nil {
		return "", err
	}

	return handle.GetWorkflowID(), nil
}

// executeWorkflowDBOS is the registered DBOS workflow function
func (r *WorkflowRunner) executeWorkflowDBOS(dbosCtx dbos.DBOSContext, req importjob.ImportRequest) (*WorkflowResult, error) {
	workflow, ok := r.workflows[importjob.JobPageImport]
	if !ok {
		return &WorkflowResult{
			Success: false,
			Error:   ErrWorkflowNotFound,
		}, ErrWorkflowNotFound
	}

	workflowID, err := dbosCtx.GetWorkflowID()
	if err != nil {
		return &WorkflowResult{
			Success: false,
			Error:   err,
		}, err
	}

	wctx := &WorkflowContext{
		Ctx:     dbosCtx,
		DBOS:    dbosCtx,
		Request: req,
		RunID:   workflowID,
	}

	return workflow.Execute(wctx)
}

// GetStatus retrieves the status of a workflow run from DBOS
func (r *WorkflowRunner) GetStatus(ctx context.Context, runID string) (*dbosruntime.WorkflowStatusInfo, error) {
	if r.dbosRuntime == nil {
		return nil, errors.New("status tracking requires DBOS runtime")
	}
	return r.dbosRuntime.GetWorkflowStatus(ctx, runID)
}

// runStep executes fn as a named, checkpointed DBOS step when the workflow
// runs durably, and inline otherwise. A checkpointed step's successful
// result is not recomputed on resumption.
func runStep[R any](wctx *WorkflowContext, name string, fn func(ctx context.Context) (R, error)) (R, error) {
	if wctx.DBOS == nil {
		return fn(wctx.Ctx)
	}
	return dbos.RunAsStep(wctx.DBOS, fn,
		dbos.WithStepName(name),
		dbos.WithStepMaxRetries(3),
	)
}
