package actions

import (
	"context"

	"github.com/meshflow/mediator/logging"
	"github.com/meshflow/mediator/model"
)

// Handler implements one named action. params carries whatever sibling
// keys the workflow definition declared alongside "action" (§4.4).
type Handler func(ctx context.Context, actx *Context, params map[string]any) error

// Registry holds the success and failure action handlers available to
// on_success/on_failure declarations. It ships with the five built-ins from
// §4.4 pre-registered; callers may add more with RegisterSuccess/
// RegisterFailure before wiring it into the engine.
type Registry struct {
	success map[string]Handler
	failure map[string]Handler
}

// NewRegistry returns a Registry with the built-in log, log_output, retry,
// skip, and abort handlers registered.
func NewRegistry() *Registry {
	r := &Registry{
		success: map[string]Handler{},
		failure: map[string]Handler{},
	}
	r.RegisterSuccess("log", handleLog)
	r.RegisterSuccess("log_output", handleLogOutput)
	r.RegisterFailure("retry", handleRetry)
	r.RegisterFailure("skip", handleSkip)
	r.RegisterFailure("abort", handleAbort)
	return r
}

// RegisterSuccess adds or replaces a named success handler.
func (r *Registry) RegisterSuccess(name string, h Handler) { r.success[name] = h }

// RegisterFailure adds or replaces a named failure handler.
func (r *Registry) RegisterFailure(name string, h Handler) { r.failure[name] = h }

// Run dispatches to the named handler in the registry matching kind. An
// unknown name is not an error: Run logs a warning (logging.Warn) and
// returns nil, leaving the step's terminal outcome as already recorded.
func (r *Registry) Run(ctx context.Context, kind model.Outcome, name string, actx *Context, params map[string]any) error {
	m := r.success
	if kind == model.OutcomeFailure {
		m = r.failure
	}
	h, ok := m[name]
	if !ok {
		logging.Warn("actions: no %s handler registered for action %q (step %q)", kind, name, actx.StepName)
		return nil
	}
	return h(ctx, actx, params)
}
