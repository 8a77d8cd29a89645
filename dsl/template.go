package dsl

import (
	"fmt"
	"strings"

	"github.com/meshflow/mediator/model"
)

// TemplateError is raised when a step's input cannot be resolved against
// recorded step outputs (§4.2, §7). It aborts dispatch of that step.
type TemplateError struct {
	Key  string
	Expr string
	Msg  string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error resolving %q (%s): %s", e.Key, e.Expr, e.Msg)
}

// Resolver evaluates {{StepName.field}} expressions against a run's
// recorded step outputs. Unlike dsl's earlier Jinja-style renderer, this is
// intentionally a narrow, single-expression grammar: the specification's
// Non-goals rule out ad-hoc scripting inside definitions.
type Resolver struct{}

// NewResolver constructs a Resolver. It carries no state; all the data it
// needs is passed to Resolve per call.
func NewResolver() *Resolver { return &Resolver{} }

// Resolve evaluates every entry in input against the given steps map,
// producing the resolved parameter mapping for one step's dispatch. It is a
// pure function of (input, steps); resolution is total or it fails — a
// step is never dispatched with partially-resolved inputs.
func (r *Resolver) Resolve(input map[string]string, steps map[string]model.StepState) (map[string]any, error) {
	out := make(map[string]any, len(input))
	for key, expr := range input {
		stepName, field, err := parseExpr(expr)
		if err != nil {
			return nil, &TemplateError{Key: key, Expr: expr, Msg: err.Error()}
		}
		state, ok := steps[stepName]
		if !ok {
			return nil, &TemplateError{Key: key, Expr: expr, Msg: fmt.Sprintf("unknown step %q", stepName)}
		}
		if state.Payload == nil {
			return nil, &TemplateError{Key: key, Expr: expr, Msg: fmt.Sprintf("step %q has not responded", stepName)}
		}
		value, ok := state.Payload.Output[field]
		if !ok {
			return nil, &TemplateError{Key: key, Expr: expr, Msg: fmt.Sprintf("step %q output has no field %q", stepName, field)}
		}
		out[key] = value
	}
	return out, nil
}

// parseExpr parses "{{ StepName.field }}" with whitespace tolerance inside
// the braces, per §3/§4.2.
func parseExpr(expr string) (step, field string, err error) {
	m := inputExprRe.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return "", "", fmt.Errorf("not a single {{StepName.field}} expression")
	}
	return m[1], m[2], nil
}
