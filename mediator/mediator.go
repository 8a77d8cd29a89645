// Package mediator implements the Bus Dispatcher (§4.6): it loads workflow
// definitions, provisions the topics they reference, subscribes one
// consumer per distinct initiating or response topic, and routes deliveries to the right
// engine.Engine's Init or Continue.
package mediator

import (
	"context"
	"fmt"
	"sync"

	"github.com/meshflow/mediator/actions"
	"github.com/meshflow/mediator/bus"
	"github.com/meshflow/mediator/dsl"
	"github.com/meshflow/mediator/engine"
	"github.com/meshflow/mediator/logging"
	"github.com/meshflow/mediator/model"
	"github.com/meshflow/mediator/state"
)

// Mediator owns one engine.Engine per loaded workflow and the bus
// subscriptions that feed them.
type Mediator struct {
	Bus      bus.Bus
	Store    state.Store
	Registry *actions.Registry

	mu          sync.Mutex
	engines     map[string]*engine.Engine // by workflow name
	byInitTopic map[string]*engine.Engine // by initiating_event.topic
	subs        []bus.Subscription
}

// New constructs an empty Mediator around the given bus and state store.
// A nil registry defaults to actions.NewRegistry().
func New(b bus.Bus, store state.Store, registry *actions.Registry) *Mediator {
	if registry == nil {
		registry = actions.NewRegistry()
	}
	return &Mediator{
		Bus:         b,
		Store:       store,
		Registry:    registry,
		engines:     map[string]*engine.Engine{},
		byInitTopic: map[string]*engine.Engine{},
	}
}

// LoadDefinitions reads and validates every *.yaml/*.yml file in dir and
// registers one Engine per workflow (§4.6 Load). Duplicate initiating
// topics across workflows are a configuration error, reported as one
// compound error after every file has been attempted.
func (m *Mediator) LoadDefinitions(dir string) error {
	workflows, loadErr := dsl.LoadDir(dir)
	if loadErr != nil {
		logging.Warn("mediator: %v", loadErr)
	}
	var errs []string
	for _, wf := range workflows {
		if err := m.Register(wf); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("mediator: %d workflow(s) rejected at registration: %v", len(errs), errs)
	}
	if len(workflows) == 0 {
		return fmt.Errorf("mediator: no valid workflow definitions loaded from %s", dir)
	}
	return nil
}

// Register wires a single validated Workflow into the mediator, rejecting
// it if another already-registered workflow claims the same initiating
// topic.
func (m *Mediator) Register(wf *model.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byInitTopic[wf.InitiatingEvent.Topic]; ok {
		return fmt.Errorf("workflow %q: initiating topic %q already claimed by workflow %q",
			wf.Name, wf.InitiatingEvent.Topic, existing.Workflow.Name)
	}
	e := engine.New(wf, m.Store, m.Bus, dsl.NewResolver(), m.Registry)
	m.engines[wf.Name] = e
	m.byInitTopic[wf.InitiatingEvent.Topic] = e
	return nil
}

// Start provisions every referenced topic and opens one consumer per
// distinct initiating or response topic, bound to the stable group
// "mediator-<topic>" (§4.6). Execute topics are provisioned but not
// consumed.
func (m *Mediator) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	topicOwners := map[string][]*engine.Engine{}
	for _, e := range m.engines {
		for _, t := range e.Workflow.Topics() {
			topicOwners[t] = append(topicOwners[t], e)
		}
	}

	specs := make([]bus.TopicSpec, 0, len(topicOwners))
	for t := range topicOwners {
		specs = append(specs, bus.TopicSpec{Name: t})
	}
	if err := m.Bus.EnsureTopics(ctx, specs); err != nil {
		return fmt.Errorf("mediator: ensure topics: %w", err)
	}

	for topic, owners := range topicOwners {
		topic, owners := topic, owners
		if model.IsExecuteTopic(topic) {
			// Execute topics are outbound-only; the mediator never consumes
			// its own dispatches.
			continue
		}
		group := "mediator-" + topic
		handler := m.routeTopic(topic, owners)
		sub, err := m.Bus.Subscribe(ctx, topic, group, handler)
		if err != nil {
			return fmt.Errorf("mediator: subscribe %s: %w", topic, err)
		}
		m.subs = append(m.subs, sub)
	}
	return nil
}

// routeTopic builds the handler for one subscribed topic: an initiating
// topic routes to its engine's Init; a response topic routes to Continue
// on every engine that declares it (ordinarily exactly one, since
// LoadDefinitions rejects duplicate initiating topics but response topics
// are only looked up per-workflow by StepByResponseTopic, which no-ops for
// engines that don't own the step).
func (m *Mediator) routeTopic(topic string, owners []*engine.Engine) bus.Handler {
	if e, ok := m.byInitTopic[topic]; ok {
		return func(ctx context.Context, payload []byte) error {
			_, err := e.Init(ctx, payload)
			if err != nil {
				logging.ErrorCtx(ctx, "mediator: init failed", "topic", topic, "workflow", e.Workflow.Name, "error", err)
			}
			return nil
		}
	}
	return func(ctx context.Context, payload []byte) error {
		var env model.EventPayload
		if err := validateEventPayload(payload, &env); err != nil {
			logging.WarnCtx(ctx, "mediator: dropping invalid event payload", "topic", topic, "error", err)
			return nil
		}
		for _, e := range owners {
			if err := e.Continue(ctx, topic, payload); err != nil {
				logging.ErrorCtx(ctx, "mediator: continue failed", "topic", topic, "workflow", e.Workflow.Name, "error", err)
			}
		}
		return nil
	}
}

// Close disconnects every open subscription concurrently, then the bus
// itself (§4.6 Shutdown, §5). Close is idempotent.
func (m *Mediator) Close() error {
	m.mu.Lock()
	subs := m.subs
	m.subs = nil
	m.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(subs))
	for _, s := range subs {
		go func(s bus.Subscription) {
			defer wg.Done()
			_ = s.Close()
		}(s)
	}
	wg.Wait()
	return m.Bus.Close()
}
