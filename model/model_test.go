package model_test

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meshflow/mediator/model"
)

const twoStepYAML = `
name: Order
version: "1.0.0"
initiating_event:
  name: OrderPlaced
  topic: order.init.place
steps:
  - name: ChargeCard
    topic: billing.execute.charge
    response_topic:
      success: [billing.success.charge]
      failure: [billing.failure.charge]
    on_failure:
      action: abort
  - name: ShipOrder
    topic: shipping.execute.ship
    depends_on: [ChargeCard]
    input:
      amount: "{{ChargeCard.amount}}"
    response_topic:
      success: [shipping.success.ship]
      failure: [shipping.failure.ship]
    on_success:
      - action: log
        message: "shipped"
`

func TestWorkflow_UnmarshalAllFields(t *testing.T) {
	var wf model.Workflow
	if err := yaml.Unmarshal([]byte(twoStepYAML), &wf); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}

	if wf.Name != "Order" {
		t.Errorf("expected Name 'Order', got %q", wf.Name)
	}
	if wf.InitiatingEvent.Topic != "order.init.place" {
		t.Errorf("expected initiating topic 'order.init.place', got %q", wf.InitiatingEvent.Topic)
	}
	if len(wf.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(wf.Steps))
	}

	charge := wf.StepByName("ChargeCard")
	if charge == nil {
		t.Fatal("expected ChargeCard step")
	}
	if charge.OnFailure == nil || charge.OnFailure.Action != "abort" {
		t.Errorf("expected ChargeCard.OnFailure.Action 'abort', got %#v", charge.OnFailure)
	}

	ship := wf.StepByName("ShipOrder")
	if ship == nil {
		t.Fatal("expected ShipOrder step")
	}
	if ship.Input["amount"] != "{{ChargeCard.amount}}" {
		t.Errorf("expected ShipOrder.Input[amount] template, got %q", ship.Input["amount"])
	}
	if len(ship.OnSuccess) != 1 || ship.OnSuccess[0].Action != "log" {
		t.Fatalf("expected one on_success action 'log', got %#v", ship.OnSuccess)
	}
	if ship.OnSuccess[0].Params["message"] != "shipped" {
		t.Errorf("expected on_success param message='shipped', got %#v", ship.OnSuccess[0].Params)
	}
}

func TestActionSpec_MarshalRoundTrip(t *testing.T) {
	a := model.ActionSpec{Action: "retry", Params: map[string]any{"max_attempts": 3}}
	out, err := yaml.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var roundTripped model.ActionSpec
	if err := yaml.Unmarshal(out, &roundTripped); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if roundTripped.Action != "retry" {
		t.Errorf("expected Action 'retry', got %q", roundTripped.Action)
	}
	if roundTripped.Params["max_attempts"] != 3 {
		t.Errorf("expected max_attempts=3, got %#v", roundTripped.Params)
	}
}

func TestWorkflow_Topics_DeduplicatesAndOrders(t *testing.T) {
	wf := model.Workflow{
		InitiatingEvent: model.InitiatingEvent{Topic: "t.init"},
		Steps: []model.Step{
			{
				Topic:          "a.execute.x",
				ResponseTopics: model.ResponseTopics{Success: []string{"a.success.x"}, Failure: []string{"a.failure.x"}},
			},
			{
				Topic:          "a.execute.x", // duplicate on purpose
				ResponseTopics: model.ResponseTopics{Success: []string{"a.success.x"}},
			},
		},
	}
	topics := wf.Topics()
	if len(topics) != 4 {
		t.Fatalf("expected 4 unique topics, got %d: %v", len(topics), topics)
	}
	if topics[0] != "t.init" {
		t.Errorf("expected first topic 't.init', got %q", topics[0])
	}
}

func TestWorkflow_StepByResponseTopic(t *testing.T) {
	var wf model.Workflow
	if err := yaml.Unmarshal([]byte(twoStepYAML), &wf); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}
	if s := wf.StepByResponseTopic("billing.success.charge", model.OutcomeSuccess); s == nil || s.Name != "ChargeCard" {
		t.Errorf("expected ChargeCard for billing.success.charge, got %#v", s)
	}
	if s := wf.StepByResponseTopic("billing.failure.charge", model.OutcomeFailure); s == nil || s.Name != "ChargeCard" {
		t.Errorf("expected ChargeCard for billing.failure.charge, got %#v", s)
	}
	if s := wf.StepByResponseTopic("no.such.topic", model.OutcomeSuccess); s != nil {
		t.Errorf("expected nil for unknown topic, got %#v", s)
	}
}

func TestRunState_Clone_IsIndependent(t *testing.T) {
	rs := &model.RunState{
		WorkflowID:  "run-1",
		Name:        "Order",
		InitiatedAt: time.Now(),
		Status:      model.RunInProgress,
		Steps: map[string]model.StepState{
			"ChargeCard": {Name: "ChargeCard", Status: model.StepOngoing},
		},
	}
	clone := rs.Clone()
	clone.Steps["ChargeCard"] = model.StepState{Name: "ChargeCard", Status: model.StepSuccess}

	if rs.Steps["ChargeCard"].Status != model.StepOngoing {
		t.Errorf("mutating clone's step map leaked back into original")
	}
}

func TestRunState_Clone_Nil(t *testing.T) {
	var rs *model.RunState
	if rs.Clone() != nil {
		t.Errorf("expected nil clone of nil RunState")
	}
}
