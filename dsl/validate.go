package dsl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/meshflow/mediator/model"
)

var (
	versionRe  = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	stepNameRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	inputExprRe = regexp.MustCompile(`^\{\{\s*([a-zA-Z0-9]+)\.([a-zA-Z0-9_]+)\s*\}\}$`)
)

// ValidationError describes one structural offense found at a JSON-pointer-
// like path into the parsed definition tree.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a compound error listing every offense found.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate runs the structural rules from the definition schema (§4.1)
// against an already-parsed Workflow and returns every offense found, or
// nil if the workflow is well-formed. It never mutates w.
func Validate(w *model.Workflow) error {
	var errs ValidationErrors

	if strings.TrimSpace(w.Name) == "" {
		errs = append(errs, ValidationError{"name", "must be non-empty"})
	}
	if !versionRe.MatchString(w.Version) {
		errs = append(errs, ValidationError{"version", "must match X.Y.Z"})
	}
	if strings.TrimSpace(w.InitiatingEvent.Topic) == "" {
		errs = append(errs, ValidationError{"initiating_event.topic", "must be non-empty"})
	}
	if len(w.Steps) < 2 {
		errs = append(errs, ValidationError{"steps", "must declare at least two steps"})
	}

	names := map[string]int{}
	for i, s := range w.Steps {
		path := fmt.Sprintf("steps[%d]", i)
		if !stepNameRe.MatchString(s.Name) {
			errs = append(errs, ValidationError{path + ".name", "must be alphanumeric"})
		} else {
			names[s.Name]++
		}
		if !model.IsExecuteTopic(s.Topic) {
			errs = append(errs, ValidationError{path + ".topic", "must be an execute topic (<ns>.execute.<action>)"})
		}
		for j, t := range s.ResponseTopics.Success {
			if !model.IsSuccessTopic(t) {
				errs = append(errs, ValidationError{fmt.Sprintf("%s.response_topic.success[%d]", path, j), "must be a success topic (<ns>.success.<action>)"})
			}
		}
		if len(s.ResponseTopics.Success) == 0 {
			errs = append(errs, ValidationError{path + ".response_topic.success", "must be non-empty"})
		}
		for j, t := range s.ResponseTopics.Failure {
			if !model.IsFailureTopic(t) {
				errs = append(errs, ValidationError{fmt.Sprintf("%s.response_topic.failure[%d]", path, j), "must be a failure topic (<ns>.failure.<action>)"})
			}
		}
		if len(s.ResponseTopics.Failure) == 0 {
			errs = append(errs, ValidationError{path + ".response_topic.failure", "must be non-empty"})
		}
		for key, expr := range s.Input {
			if !inputExprRe.MatchString(strings.TrimSpace(expr)) {
				errs = append(errs, ValidationError{fmt.Sprintf("%s.input.%s", path, key), "must be a single {{StepName.field}} expression"})
			}
		}
	}
	for name, count := range names {
		if count > 1 {
			errs = append(errs, ValidationError{"steps", fmt.Sprintf("duplicate step name %q", name)})
		}
	}

	// depends_on references must name an existing step in the same workflow.
	for i, s := range w.Steps {
		path := fmt.Sprintf("steps[%d].depends_on", i)
		for _, dep := range s.DependsOn {
			if w.StepByName(dep) == nil {
				errs = append(errs, ValidationError{path, fmt.Sprintf("references unknown step %q", dep)})
			}
		}
	}

	if cycle := findCycle(w); cycle != "" {
		errs = append(errs, ValidationError{"steps", "dependency cycle detected: " + cycle})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// findCycle walks the depends_on DAG and returns a description of the first
// cycle found, or "" if the graph is acyclic. Unknown step references are
// ignored here; Validate already reports those separately.
func findCycle(w *model.Workflow) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(w.Steps))
	var path []string

	var visit func(name string) string
	visit = func(name string) string {
		color[name] = gray
		path = append(path, name)
		step := w.StepByName(name)
		if step != nil {
			for _, dep := range step.DependsOn {
				switch color[dep] {
				case white:
					if cyc := visit(dep); cyc != "" {
						return cyc
					}
				case gray:
					return strings.Join(append(append([]string{}, path...), dep), " -> ")
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return ""
	}

	for _, s := range w.Steps {
		if color[s.Name] == white {
			if cyc := visit(s.Name); cyc != "" {
				return cyc
			}
		}
	}
	return ""
}
