// Package actions implements the Action Registry (§4.4): the built-in and
// pluggable success/failure handlers a step's on_success/on_failure
// declarations invoke once its terminal outcome is known.
package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meshflow/mediator/bus"
	"github.com/meshflow/mediator/dsl"
	"github.com/meshflow/mediator/model"
	"github.com/meshflow/mediator/state"
)

// Context is the capability-bearing handle a handler receives: enough of the
// run's live state to inspect the triggering step and, if it chooses,
// retry the step or invoke another registered handler. Handlers never see
// the engine directly.
type Context struct {
	Registry *Registry
	Workflow *model.Workflow
	Run      *model.RunState
	StepName string
	Kind     model.Outcome

	Store    state.Store
	Bus      bus.Bus
	Resolver *dsl.Resolver
}

// Step returns the triggering step's current recorded state.
func (c *Context) Step() model.StepState {
	return c.Run.Steps[c.StepName]
}

// RetryStep resets the triggering step to ongoing, persists the run, and
// re-dispatches it to its execute topic with freshly resolved inputs —
// the same path the engine itself takes on first dispatch (§4.5).
func (c *Context) RetryStep(ctx context.Context) error {
	step := c.Workflow.StepByName(c.StepName)
	if step == nil {
		return fmt.Errorf("actions: retry_step: unknown step %q", c.StepName)
	}
	inputs, err := c.Resolver.Resolve(step.Input, c.Run.Steps)
	if err != nil {
		return fmt.Errorf("actions: retry_step: %w", err)
	}
	c.Run.Steps[c.StepName] = model.StepState{Name: c.StepName, Status: model.StepOngoing}
	if err := state.SaveJSON(ctx, c.Store, c.Run.WorkflowID, c.Run); err != nil {
		return fmt.Errorf("actions: retry_step: persist run: %w", err)
	}
	body, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("actions: retry_step: marshal inputs: %w", err)
	}
	return c.Bus.Publish(ctx, step.Topic, body)
}

// RunHandler invokes another handler from the same registry (success or
// failure, matching this Context's own Kind) by name — used by retry's
// action_after_attempts to chain into e.g. skip or abort.
func (c *Context) RunHandler(ctx context.Context, name string, params map[string]any) error {
	return c.Registry.Run(ctx, c.Kind, name, c, params)
}
