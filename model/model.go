// Package model defines the workflow definition schema and the persisted
// run-time state that the engine reads and writes through the state store.
package model

import "time"

// Workflow is the immutable, validated definition of a DAG of steps,
// triggered by an initiating event on a message-bus topic.
type Workflow struct {
	Name            string          `yaml:"name" json:"name"`
	Description     string          `yaml:"description,omitempty" json:"description,omitempty"`
	Version         string          `yaml:"version" json:"version"`
	InitiatingEvent InitiatingEvent `yaml:"initiating_event" json:"initiating_event"`
	Steps           []Step          `yaml:"steps" json:"steps"`
}

// InitiatingEvent names the pseudo-step under which the initiating payload
// is recorded, and the topic whose arrival spawns a new run.
type InitiatingEvent struct {
	Name  string `yaml:"name" json:"name"`
	Topic string `yaml:"topic" json:"topic"`
}

// Step is one request/response exchange in a workflow.
type Step struct {
	Name           string            `yaml:"name" json:"name"`
	Topic          string            `yaml:"topic" json:"topic"`
	Input          map[string]string `yaml:"input,omitempty" json:"input,omitempty"`
	DependsOn      []string          `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	ResponseTopics ResponseTopics    `yaml:"response_topic" json:"response_topic"`
	OnSuccess      []ActionSpec      `yaml:"on_success,omitempty" json:"on_success,omitempty"`
	OnFailure      *ActionSpec       `yaml:"on_failure,omitempty" json:"on_failure,omitempty"`
}

// ResponseTopics groups the success and failure reply topics a step awaits.
type ResponseTopics struct {
	Success []string `yaml:"success" json:"success"`
	Failure []string `yaml:"failure" json:"failure"`
}

// ActionSpec names a success/failure action and its parameters. Parameters
// are carried as a generic bag; built-in handlers pick the fields they need.
type ActionSpec struct {
	Action string         `yaml:"action" json:"action"`
	Params map[string]any `yaml:",inline" json:"-"`
}

// UnmarshalYAML captures the "action" field plus any sibling keys as Params,
// since action parameter shapes vary per handler (attempts, message, ...).
func (a *ActionSpec) UnmarshalYAML(unmarshal func(any) error) error {
	raw := map[string]any{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	action, _ := raw["action"].(string)
	delete(raw, "action")
	a.Action = action
	a.Params = raw
	return nil
}

// MarshalYAML re-flattens Params alongside the action name.
func (a ActionSpec) MarshalYAML() (any, error) {
	out := map[string]any{"action": a.Action}
	for k, v := range a.Params {
		out[k] = v
	}
	return out, nil
}

// Outcome classifies a delivered reply as success or failure. Execute-topic
// deliveries are never classified; the dispatcher ignores them.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// EventPayload is the standard reply envelope carried on response topics,
// and the synthesized wrapper around an initiating message's raw JSON body.
type EventPayload struct {
	WorkflowID string         `json:"workflow_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Success    bool           `json:"success"`
	Output     map[string]any `json:"output"`
}

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunInProgress RunStatus = "InProgress"
	RunSuccess    RunStatus = "Success"
	RunFailed     RunStatus = "Failed"
)

// StepStatus is the lifecycle state of one step within a run.
type StepStatus string

const (
	StepOngoing StepStatus = "ongoing"
	StepSuccess StepStatus = "success"
	StepFailure StepStatus = "failure"
)

// RunState is the mutable, persisted state of one live workflow execution.
type RunState struct {
	WorkflowID  string               `json:"workflow_id"`
	Name        string               `json:"name"`
	InitiatedAt time.Time            `json:"initiated_at"`
	Status      RunStatus            `json:"status"`
	Steps       map[string]StepState `json:"steps"`
}

// StepState is the last-observed status and payload for one step of a run.
type StepState struct {
	Name    string        `json:"name"`
	Status  StepStatus    `json:"status"`
	Payload *EventPayload `json:"payload,omitempty"`
}

// Clone returns a copy of the run state with its own Steps map, so steps
// can be added or replaced on the copy without affecting the original.
// Step payloads are shared by pointer, not copied.
func (r *RunState) Clone() *RunState {
	if r == nil {
		return nil
	}
	out := &RunState{
		WorkflowID:  r.WorkflowID,
		Name:        r.Name,
		InitiatedAt: r.InitiatedAt,
		Status:      r.Status,
		Steps:       make(map[string]StepState, len(r.Steps)),
	}
	for k, v := range r.Steps {
		out.Steps[k] = v
	}
	return out
}

// StepByName finds the step definition with the given name.
func (w *Workflow) StepByName(name string) *Step {
	for i := range w.Steps {
		if w.Steps[i].Name == name {
			return &w.Steps[i]
		}
	}
	return nil
}

// StepByResponseTopic finds the step that awaits the given topic for the
// given outcome, returning nil if no step declares it.
func (w *Workflow) StepByResponseTopic(topic string, outcome Outcome) *Step {
	for i := range w.Steps {
		s := &w.Steps[i]
		topics := s.ResponseTopics.Success
		if outcome == OutcomeFailure {
			topics = s.ResponseTopics.Failure
		}
		for _, t := range topics {
			if t == topic {
				return s
			}
		}
	}
	return nil
}

// Topics returns the union of every topic this workflow references:
// the initiating topic, every step's execute topic, and every step's
// success/failure response topics.
func (w *Workflow) Topics() []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	add(w.InitiatingEvent.Topic)
	for _, s := range w.Steps {
		add(s.Topic)
		for _, t := range s.ResponseTopics.Success {
			add(t)
		}
		for _, t := range s.ResponseTopics.Failure {
			add(t)
		}
	}
	return out
}
