package sse

import (
	"context"
	"log/slog"
	"sync"

	"leiloes/adapters/redis"
)

type managerOptions[T any] struct {
	logger   *slog.Logger
	consumer redis.IConsumer[PublishRequest[T]]
	producer redis.IProducer[PublishRequest[T]]
}

type ManagerOption[T any] func(*managerOptions[T])

// WithManagerLogger sets the logger.
func WithManagerLogger[T any](logger *slog.Logger) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.logger = logger
	}
}

// WithManagerBridge relays publishes through a Redis stream so that every
// node broadcasts the same events to its local subscribers. Without a
// bridge the manager broadcasts in-process only.
func WithManagerBridge[T any](consumer redis.IConsumer[PublishRequest[T]], producer redis.IProducer[PublishRequest[T]]) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.consumer = consumer
		o.producer = producer
	}
}

// connectionManager routes published messages to named channels, either
// directly or through the configured Redis stream bridge.
type connectionManager[T any] struct {
	logger *slog.Logger

	mu     sync.RWMutex
	wg     sync.WaitGroup
	active bool

	channels map[string]IChannel[T]
	options  managerOptions[T]
}

// NewConnectionManager builds a manager. The manager accepts subscriptions
// and publishes immediately; Start is only needed when a bridge is set.
func NewConnectionManager[T any](opts ...ManagerOption[T]) IConnectionManager[T] {
	options := managerOptions[T]{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(&options)
	}

	return &connectionManager[T]{
		logger:   options.logger.With(slog.String("caller", "ConnectionManager")),
		channels: make(map[string]IChannel[T]),
		active:   true,
		options:  options,
	}
}

// Start begins consuming the bridge stream and broadcasting its messages.
// Without a bridge this is a no-op.
func (cm *connectionManager[T]) Start() {
	if cm.options.consumer == nil {
		return
	}

	cm.options.producer.Start()
	cm.options.consumer.Start()

	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		for msg := range cm.options.consumer.Subscribe() {
			cm.broadcast(msg.Channel, msg.Message)
		}
	}()
}

func (cm *connectionManager[T]) broadcast(channelName string, data T) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if channel, ok := cm.channels[channelName]; ok {
		channel.Broadcast(data)
	}
}

// Done stops the manager and releases every subscription.
func (cm *connectionManager[T]) Done() {
	cm.mu.Lock()
	if !cm.active {
		cm.mu.Unlock()
		return
	}
	cm.active = false
	cm.mu.Unlock()

	if cm.options.consumer != nil {
		cm.options.consumer.Close()
		cm.options.producer.Close()
	}
	// Wait with the lock released, the relay goroutine takes it to broadcast.
	cm.wg.Wait()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

// Subscribe registers a subscription on the named channel, creating the
// channel on first use.
func (cm *connectionManager[T]) Subscribe(channelName string) (<-chan T, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return nil, context.Canceled
	}

	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel[T]()
		cm.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

// Publish pushes data to the named channel. With a bridge the message goes
// through the stream and comes back via the relay; otherwise it is
// broadcast asynchronously in-process.
func (cm *connectionManager[T]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	active := cm.active
	cm.mu.RUnlock()
	if !active {
		return context.Canceled
	}

	if cm.options.producer != nil {
		return cm.options.producer.Publish(PublishRequest[T]{
			Channel: channelName,
			Message: data,
		})
	}

	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		cm.broadcast(channelName, data)
	}()
	return nil
}

// Unsubscribe removes a subscription and drops the channel once idle.
func (cm *connectionManager[T]) Unsubscribe(channelName string, ch <-chan T) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, ok := cm.channels[channelName]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}
