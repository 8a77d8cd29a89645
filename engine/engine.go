// Package engine implements the Run State Machine (§4.5): the per-run
// executor that resolves ready steps, dispatches them, interprets replies,
// runs success/failure actions, and detects terminal states.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/meshflow/mediator/actions"
	"github.com/meshflow/mediator/bus"
	"github.com/meshflow/mediator/dsl"
	"github.com/meshflow/mediator/logging"
	"github.com/meshflow/mediator/metrics"
	"github.com/meshflow/mediator/model"
	"github.com/meshflow/mediator/state"
)

// Engine drives runs of a single Workflow definition. One Engine is
// constructed per loaded workflow; the Mediator holds one per definition
// and routes messages to the right Engine by topic.
type Engine struct {
	Workflow *model.Workflow
	Store    state.Store
	Bus      bus.Bus
	Resolver *dsl.Resolver
	Actions  *actions.Registry

	locks *keyedMutex
}

// New constructs an Engine for wf. registry must not be nil; callers that
// want only the built-ins can pass actions.NewRegistry().
func New(wf *model.Workflow, store state.Store, b bus.Bus, resolver *dsl.Resolver, registry *actions.Registry) *Engine {
	return &Engine{
		Workflow: wf,
		Store:    store,
		Bus:      b,
		Resolver: resolver,
		Actions:  registry,
		locks:    newKeyedMutex(),
	}
}

// Init creates a new run from the initiating event's raw JSON body (§4.5
// init). It returns the newly minted workflow_id.
func (e *Engine) Init(ctx context.Context, initiatingOutputRaw []byte) (string, error) {
	ctx, span := metrics.Tracer().Start(ctx, "engine.Init", trace.WithAttributes(attribute.String("workflow", e.Workflow.Name)))
	defer span.End()

	var output map[string]any
	if len(initiatingOutputRaw) > 0 {
		if err := json.Unmarshal(initiatingOutputRaw, &output); err != nil {
			return "", fmt.Errorf("engine: parse initiating payload: %w", err)
		}
	}

	workflowID := e.Store.NewKey()
	unlock := e.locks.Lock(workflowID)
	defer unlock()

	now := time.Now().UTC()
	payload := &model.EventPayload{
		WorkflowID: workflowID,
		Timestamp:  now,
		Success:    true,
		Output:     output,
	}
	rs := &model.RunState{
		WorkflowID:  workflowID,
		Name:        e.Workflow.Name,
		InitiatedAt: now,
		Status:      model.RunInProgress,
		Steps: map[string]model.StepState{
			e.Workflow.InitiatingEvent.Name: {
				Name:    e.Workflow.InitiatingEvent.Name,
				Status:  model.StepSuccess,
				Payload: payload,
			},
		},
	}

	ctx = logging.WithRequestID(ctx, workflowID)
	metrics.RunInitiated(e.Workflow.Name)
	if err := e.advance(ctx, rs); err != nil {
		logging.ErrorCtx(ctx, "advance failed during init", "error", err)
	}
	if err := state.SaveJSON(ctx, e.Store, workflowID, rs); err != nil {
		return workflowID, fmt.Errorf("engine: persist run %s: %w", workflowID, err)
	}
	if rs.Status != model.RunInProgress {
		metrics.RunTerminal(e.Workflow.Name, string(rs.Status))
	}
	return workflowID, nil
}

// Continue applies one response-topic delivery to the run it names (§4.5
// continue). A nil return does not mean the message changed anything — the
// idempotency gate and unknown-topic/unknown-run cases both return nil
// after logging, per §7's DeliveryAnomaly policy.
func (e *Engine) Continue(ctx context.Context, topic string, rawPayload []byte) error {
	ctx, span := metrics.Tracer().Start(ctx, "engine.Continue", trace.WithAttributes(attribute.String("workflow", e.Workflow.Name), attribute.String("topic", topic)))
	defer span.End()

	outcome, ok := model.ClassifyTopic(topic)
	if !ok {
		if model.IsExecuteTopic(topic) {
			return nil
		}
		logging.WarnCtx(ctx, "continue: topic does not match the bus discipline", "topic", topic)
		return nil
	}

	var payload model.EventPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		logging.WarnCtx(ctx, "continue: invalid event payload", "topic", topic, "error", err)
		return nil
	}
	if payload.WorkflowID == "" {
		logging.WarnCtx(ctx, "continue: event payload missing workflow_id", "topic", topic)
		return nil
	}

	ctx = logging.WithRequestID(ctx, payload.WorkflowID)
	unlock := e.locks.Lock(payload.WorkflowID)
	defer unlock()

	var rs model.RunState
	found, err := state.LoadJSON(ctx, e.Store, payload.WorkflowID, &rs)
	if err != nil {
		return fmt.Errorf("engine: load run %s: %w", payload.WorkflowID, err)
	}
	if !found {
		logging.WarnCtx(ctx, "continue: unknown workflow_id, run not owned by this mediator", "topic", topic)
		return nil
	}

	step := e.Workflow.StepByResponseTopic(topic, outcome)
	if step == nil {
		logging.WarnCtx(ctx, "continue: no step awaits this topic", "topic", topic)
		return nil
	}

	current, exists := rs.Steps[step.Name]
	if !exists || current.Status != model.StepOngoing {
		logging.DebugCtx(ctx, "continue: idempotency gate dropped reply", "step", step.Name)
		return nil
	}

	recorded := payload
	newStatus := model.StepSuccess
	if outcome == model.OutcomeFailure {
		newStatus = model.StepFailure
	}
	rs.Steps[step.Name] = model.StepState{Name: step.Name, Status: newStatus, Payload: &recorded}

	e.detectTerminal(&rs)

	var advanceFailed bool
	if rs.Status == model.RunInProgress {
		if err := e.advance(ctx, &rs); err != nil {
			logging.ErrorCtx(ctx, "advance failed during continue", "error", err)
			advanceFailed = true
		}
	}

	if err := e.runHandlers(ctx, &rs, step, outcome); err != nil {
		logging.ErrorCtx(ctx, "action handler failed", "step", step.Name, "error", err)
	}

	// Re-check terminal status: handlers may have rewritten it (skip) or
	// reopened a step (retry), per §4.5 step 9 / §9 design note 2. A
	// TemplateError from advance is a terminal failure in its own right,
	// unrelated to any step's on_failure handler, so it is not subject to
	// this recheck — advance has already set Failed and that stands.
	if !advanceFailed {
		e.detectTerminal(&rs)
	}

	if err := state.SaveJSON(ctx, e.Store, rs.WorkflowID, &rs); err != nil {
		return fmt.Errorf("engine: persist run %s: %w", rs.WorkflowID, err)
	}
	if rs.Status != model.RunInProgress {
		metrics.RunTerminal(e.Workflow.Name, string(rs.Status))
	}
	return nil
}

// detectTerminal recomputes rs.Status from the current step statuses.
// Success always wins outright (§3 invariant 4). A run already marked
// Success (by the skip action) is never downgraded back to Failed by this
// recheck. Otherwise any recorded step failure marks the run Failed;
// absent that, the run is still InProgress.
func (e *Engine) detectTerminal(rs *model.RunState) {
	if e.allStepsSuccess(rs) {
		rs.Status = model.RunSuccess
		return
	}
	if rs.Status == model.RunSuccess {
		return
	}
	if anyStepFailure(rs) {
		rs.Status = model.RunFailed
		return
	}
	rs.Status = model.RunInProgress
}

func (e *Engine) allStepsSuccess(rs *model.RunState) bool {
	for _, step := range e.Workflow.Steps {
		st, ok := rs.Steps[step.Name]
		if !ok || st.Status != model.StepSuccess {
			return false
		}
	}
	return true
}

func anyStepFailure(rs *model.RunState) bool {
	for _, st := range rs.Steps {
		if st.Status == model.StepFailure {
			return true
		}
	}
	return false
}

func (e *Engine) runHandlers(ctx context.Context, rs *model.RunState, step *model.Step, outcome model.Outcome) error {
	actx := &actions.Context{
		Registry: e.Actions,
		Workflow: e.Workflow,
		Run:      rs,
		StepName: step.Name,
		Kind:     outcome,
		Store:    e.Store,
		Bus:      e.Bus,
		Resolver: e.Resolver,
	}
	if outcome == model.OutcomeSuccess {
		for _, spec := range step.OnSuccess {
			if err := e.Actions.Run(ctx, model.OutcomeSuccess, spec.Action, actx, spec.Params); err != nil {
				return err
			}
		}
		return nil
	}
	if step.OnFailure == nil {
		return nil
	}
	return e.Actions.Run(ctx, model.OutcomeFailure, step.OnFailure.Action, actx, step.OnFailure.Params)
}

type readyStep struct {
	step   *model.Step
	inputs map[string]any
}

// advance implements §4.5's internal advance: find every step whose
// dependencies are satisfied and which hasn't yet been dispatched, resolve
// its inputs, and publish it to its execute topic. Ready steps are
// resolved in definition order (so a TemplateError is deterministic) but
// dispatched concurrently, since none mutates state the others read (§5).
//
// A TemplateError on one ready step aborts dispatch of that step only
// (§4.5 step 3): the remaining ready steps in the same wave still resolve
// and dispatch normally, so one step's bad template doesn't starve an
// independently-ready sibling. The run is still marked Failed once any
// template resolves badly, since §3 invariant 5 has no path back to
// Success once a step is unrunnable — it just doesn't happen at the cost
// of the steps that were fine.
func (e *Engine) advance(ctx context.Context, rs *model.RunState) error {
	done := map[string]bool{}
	for name, st := range rs.Steps {
		if st.Status == model.StepSuccess {
			done[name] = true
		}
	}

	var ready []readyStep
	var templateErrs []error
	for i := range e.Workflow.Steps {
		step := &e.Workflow.Steps[i]
		if _, dispatched := rs.Steps[step.Name]; dispatched {
			continue
		}
		if !dependenciesMet(step.DependsOn, done) {
			continue
		}
		inputs, err := e.Resolver.Resolve(step.Input, rs.Steps)
		if err != nil {
			templateErrs = append(templateErrs, fmt.Errorf("%s: %w", step.Name, err))
			continue
		}
		ready = append(ready, readyStep{step: step, inputs: inputs})
	}

	if len(ready) > 0 {
		errs := make([]error, len(ready))
		var wg sync.WaitGroup
		for i, r := range ready {
			wg.Add(1)
			go func(i int, r readyStep) {
				defer wg.Done()
				body, err := json.Marshal(r.inputs)
				if err != nil {
					errs[i] = fmt.Errorf("marshal inputs for %s: %w", r.step.Name, err)
					return
				}
				errs[i] = e.Bus.Publish(ctx, r.step.Topic, body)
			}(i, r)
		}
		wg.Wait()

		var firstDispatchErr error
		for i, r := range ready {
			if errs[i] != nil {
				if firstDispatchErr == nil {
					firstDispatchErr = errs[i]
				}
				continue
			}
			rs.Steps[r.step.Name] = model.StepState{Name: r.step.Name, Status: model.StepOngoing}
			metrics.StepDispatched(e.Workflow.Name, r.step.Name)
		}
		if firstDispatchErr != nil && len(templateErrs) == 0 {
			return fmt.Errorf("engine: advance: dispatch: %w", firstDispatchErr)
		}
	}

	if len(templateErrs) > 0 {
		rs.Status = model.RunFailed
		return fmt.Errorf("engine: advance: %w", errors.Join(templateErrs...))
	}
	return nil
}

func dependenciesMet(deps []string, done map[string]bool) bool {
	for _, d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}
