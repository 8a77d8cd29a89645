// Package bus defines the message-bus contract the mediator and run-time
// engine depend on (§6): topic provisioning, publish, and one-consumer-per-
// topic subscription. Producer/consumer semantics themselves (at-least-once
// delivery, retry, partitioning) are delegated to the concrete transport.
package bus

import "context"

// TopicSpec describes a topic the mediator wants to exist before it starts
// subscribing, along with the provisioning parameters a Kafka-like
// transport would need.
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
}

// Handler processes one delivered message. Returning an error does not
// retry the message itself; transports are at-least-once and redelivery is
// their concern, not the handler's.
type Handler func(ctx context.Context, payload []byte) error

// Subscription represents one open consumer; Close stops it.
type Subscription interface {
	Close() error
}

// Bus is the narrow contract the mediator requires from the underlying
// message transport.
type Bus interface {
	// Topics returns the set of topics that currently exist on the bus.
	Topics(ctx context.Context) ([]string, error)
	// EnsureTopics creates any of the given topics that don't already
	// exist, using the supplied partition/replication settings. Topics
	// already present are left untouched.
	EnsureTopics(ctx context.Context, specs []TopicSpec) error
	// Publish sends payload to topic. The bus is safe for concurrent
	// publish from multiple goroutines.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe opens one consumer bound to topic in the given consumer
	// group, invoking handler once per delivered message. The returned
	// Subscription's Close stops delivery; Subscribe itself does not
	// block.
	Subscribe(ctx context.Context, topic, group string, handler Handler) (Subscription, error)
	// Close disconnects every open subscription and the underlying
	// producer. Close is idempotent.
	Close() error
}
