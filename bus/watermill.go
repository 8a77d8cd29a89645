package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wnats "github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	stan "github.com/nats-io/stan.go"
)

// subscriberFactory builds the Watermill subscriber Subscribe should use for
// one topic/group pair, and an optional closer to release it when the
// subscription is torn down (the in-process driver shares one subscriber
// across every topic and returns a no-op closer; the NATS driver opens a
// dedicated streaming connection per group so the group actually binds).
type subscriberFactory func(topic, group string) (message.Subscriber, func() error, error)

// WatermillBus satisfies Bus on top of Watermill. The in-memory gochannel
// driver creates topics implicitly on first publish/subscribe; the NATS
// Streaming driver's subjects likewise need no up-front provisioning, so
// EnsureTopics records the requested topics for introspection (Topics)
// without issuing a transport-level create call. A future Kafka-backed Bus
// would give EnsureTopics real teeth.
type WatermillBus struct {
	publisher     message.Publisher
	newSubscriber subscriberFactory

	mu     sync.Mutex
	known  map[string]struct{}
	subs   []Subscription
	closed bool
}

var _ Bus = (*WatermillBus)(nil)

// NewInProcBus returns a Watermill bus backed by an in-memory gochannel,
// the default used in tests and single-process deployments. gochannel has
// no queue-group concept, so every Subscribe call shares the one
// publisher/subscriber pair regardless of the group argument.
func NewInProcBus() *WatermillBus {
	logger := watermill.NewStdLogger(false, false)
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
	return &WatermillBus{
		publisher: ps,
		newSubscriber: func(topic, group string) (message.Subscriber, func() error, error) {
			return ps, func() error { return nil }, nil
		},
		known: map[string]struct{}{},
	}
}

// NewNATSBus returns a Watermill bus backed by NATS Streaming. Subscribe
// opens one dedicated StreamingSubscriber per (topic, group) pair, binding
// group as both the NATS Streaming queue group (the mechanism that makes
// multiple mediator instances subscribed to the same topic load-balance
// rather than each receive every message) and the durable name (so a
// reconnecting subscriber resumes rather than replaying from the start).
func NewNATSBus(clusterID, clientID, url string) (*WatermillBus, error) {
	logger := watermill.NewStdLogger(false, false)
	pub, err := wnats.NewStreamingPublisher(wnats.StreamingPublisherConfig{
		ClusterID:   clusterID,
		ClientID:    clientID + "-pub",
		StanOptions: []stan.Option{stan.NatsURL(url)},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("bus: connect publisher: %w", err)
	}

	newSubscriber := func(topic, group string) (message.Subscriber, func() error, error) {
		sub, err := wnats.NewStreamingSubscriber(wnats.StreamingSubscriberConfig{
			ClusterID:      clusterID,
			ClientID:       natsClientID(clientID, topic, group),
			QueueGroup:     group,
			DurableName:    group,
			StanOptions:    []stan.Option{stan.NatsURL(url)},
			CloseTimeout:   30 * time.Second,
			AckWaitTimeout: 30 * time.Second,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("bus: connect subscriber for group %s: %w", group, err)
		}
		return sub, sub.Close, nil
	}

	return &WatermillBus{publisher: pub, newSubscriber: newSubscriber, known: map[string]struct{}{}}, nil
}

// natsClientID derives a unique, NATS-legal client ID for a per-topic
// streaming connection from the configured base client ID and the group
// it is joining. NATS Streaming client IDs must be unique per cluster and
// may not contain the topic-grammar's "." "/" ":" characters.
func natsClientID(base, topic, group string) string {
	replacer := strings.NewReplacer(".", "_", "/", "_", ":", "_")
	return fmt.Sprintf("%s-sub-%s", base, replacer.Replace(group+"-"+topic))
}

func (b *WatermillBus) Topics(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.known))
	for t := range b.known {
		out = append(out, t)
	}
	return out, nil
}

func (b *WatermillBus) EnsureTopics(ctx context.Context, specs []TopicSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range specs {
		b.known[s.Name] = struct{}{}
	}
	return nil
}

func (b *WatermillBus) Publish(ctx context.Context, topic string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return b.publisher.Publish(topic, msg)
}

// Subscribe binds one consumer to topic within group. For the NATS driver,
// group is the stable queue-group/durable name spec.md §4.6 requires
// ("mediator-<topic>"), so concurrent mediator instances subscribed to the
// same topic compete for messages rather than each receiving every one.
func (b *WatermillBus) Subscribe(ctx context.Context, topic, group string, handler Handler) (Subscription, error) {
	subscriber, closeSubscriber, err := b.newSubscriber(topic, group)
	if err != nil {
		return nil, err
	}
	ch, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		closeSubscriber()
		return nil, fmt.Errorf("bus: subscribe %s: %w", topic, err)
	}
	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handler(subCtx, msg.Payload); err != nil {
					msg.Nack()
					continue
				}
				msg.Ack()
			case <-subCtx.Done():
				return
			}
		}
	}()
	sub := &watermillSubscription{cancel: cancel, closeSubscriber: closeSubscriber}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub, nil
}

func (b *WatermillBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		_ = s.Close()
	}
	return b.publisher.Close()
}

type watermillSubscription struct {
	cancel          context.CancelFunc
	closeSubscriber func() error
	once            sync.Once
	closeErr        error
}

func (s *watermillSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.closeErr = s.closeSubscriber()
	})
	return s.closeErr
}
