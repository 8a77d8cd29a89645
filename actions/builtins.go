package actions

import (
	"context"
	"encoding/json"

	"github.com/meshflow/mediator/logging"
	"github.com/meshflow/mediator/metrics"
	"github.com/meshflow/mediator/model"
	"github.com/meshflow/mediator/state"
)

// handleLog emits an operator-visible log line carrying the configured
// message (§4.4: success/log).
func handleLog(ctx context.Context, actx *Context, params map[string]any) error {
	logging.User("[%s/%s] %s", actx.Run.WorkflowID, actx.StepName, stringParam(params, "message"))
	return nil
}

// handleLogOutput emits the step's recorded payload to the operator stream
// (§4.4: success/log_output).
func handleLogOutput(ctx context.Context, actx *Context, params map[string]any) error {
	step := actx.Step()
	body, err := json.Marshal(step.Payload)
	if err != nil {
		return err
	}
	logging.User("[%s/%s] %s", actx.Run.WorkflowID, actx.StepName, body)
	return nil
}

// handleRetry implements §4.4's retry action: increment the persisted
// per-(workflow_id, step_name) counter, and either re-dispatch the step or,
// once max_attempts is reached, fall through to action_after_attempts.
func handleRetry(ctx context.Context, actx *Context, params map[string]any) error {
	maxAttempts, err := intParam(params, "max_attempts")
	if err != nil {
		return err
	}
	key := state.RetryKey(actx.Run.WorkflowID, actx.StepName)
	var count int
	if _, err := state.LoadJSON(ctx, actx.Store, key, &count); err != nil {
		return err
	}
	count++
	if err := state.SaveJSON(ctx, actx.Store, key, count); err != nil {
		return err
	}
	if count < maxAttempts {
		logging.InfoCtx(ctx, "retrying step", "step", actx.StepName, "attempt", count, "max_attempts", maxAttempts)
		metrics.StepRetried(actx.Workflow.Name, actx.StepName)
		return actx.RetryStep(ctx)
	}
	logging.WarnCtx(ctx, "step exhausted retries", "step", actx.StepName, "attempts", count)
	next := stringParam(params, "action_after_attempts")
	if next == "" {
		return nil
	}
	return actx.RunHandler(ctx, next, nil)
}

// handleSkip marks the run successful despite this step's failure (§4.4:
// failure/skip) — the run's terminal status is decided here, not by the
// engine's own terminal-detection pass, which is why skip must run before
// that pass re-evaluates.
func handleSkip(ctx context.Context, actx *Context, params map[string]any) error {
	actx.Run.Status = model.RunSuccess
	return nil
}

// handleAbort is a deliberate no-op: the step's and run's failed status
// stand as already recorded (§4.4: failure/abort).
func handleAbort(ctx context.Context, actx *Context, params map[string]any) error {
	return nil
}
