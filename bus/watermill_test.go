package bus

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestInProcBus_PublishSubscribe(t *testing.T) {
	b := NewInProcBus()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var mu sync.Mutex
	var received []byte
	var wg sync.WaitGroup
	wg.Add(1)

	sub, err := b.Subscribe(ctx, "orders.execute.charge", "mediator-orders.execute.charge", func(ctx context.Context, payload []byte) error {
		mu.Lock()
		received = payload
		mu.Unlock()
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	time.Sleep(10 * time.Millisecond)
	if err := b.Publish(ctx, "orders.execute.charge", []byte(`{"amount":5}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if string(received) != `{"amount":5}` {
		t.Errorf("got %q", received)
	}
}

func TestEnsureTopicsAndList(t *testing.T) {
	b := NewInProcBus()
	defer b.Close()
	ctx := context.Background()
	if err := b.EnsureTopics(ctx, []TopicSpec{{Name: "a.execute.x"}, {Name: "a.success.x"}}); err != nil {
		t.Fatalf("EnsureTopics failed: %v", err)
	}
	topics, err := b.Topics(ctx)
	if err != nil {
		t.Fatalf("Topics failed: %v", err)
	}
	if len(topics) != 2 {
		t.Errorf("expected 2 topics, got %v", topics)
	}
}

func TestNewFromConfig_Memory(t *testing.T) {
	b, err := New(&Config{Driver: "memory"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer b.Close()
}

func TestNewFromConfig_UnsupportedDriver(t *testing.T) {
	if _, err := New(&Config{Driver: "kafka"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestNatsClientID_UniquePerTopicAndGroup(t *testing.T) {
	a := natsClientID("mediator-client", "billing.execute.charge", "mediator-billing.execute.charge")
	b := natsClientID("mediator-client", "shipping.execute.ship", "mediator-shipping.execute.ship")
	if a == b {
		t.Errorf("expected distinct client IDs for distinct topics, got %q twice", a)
	}
	for _, illegal := range []string{".", "/", ":"} {
		if strings.Contains(a, illegal) {
			t.Errorf("client ID %q still contains illegal character %q", a, illegal)
		}
	}
}

func TestInProcBus_IgnoresGroupAcceptsTwoSubscriptions(t *testing.T) {
	// gochannel has no queue-group concept; Subscribe must still work when
	// two different groups name is passed for the same topic, since the
	// in-process driver's factory shares one subscriber regardless.
	b := NewInProcBus()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub1, err := b.Subscribe(ctx, "a.execute.x", "group-one", func(ctx context.Context, payload []byte) error { return nil })
	if err != nil {
		t.Fatalf("Subscribe 1 failed: %v", err)
	}
	defer sub1.Close()

	sub2, err := b.Subscribe(ctx, "a.execute.x", "group-two", func(ctx context.Context, payload []byte) error { return nil })
	if err != nil {
		t.Fatalf("Subscribe 2 failed: %v", err)
	}
	defer sub2.Close()
}
