//go:generate mockgen -package=sse -destination=mock.go -source=interfaces.go

package sse

// IChannel fans a topic out to its subscribers.
type IChannel[T any] interface {
	// Subscribe creates a new subscription and returns its receive channel.
	Subscribe() <-chan T
	// Unsubscribe removes and closes the given subscription.
	Unsubscribe(ch <-chan T)
	// UnsubscribeAll removes and closes every subscription.
	UnsubscribeAll()
	// Broadcast delivers message to every subscriber.
	Broadcast(message T)
	// IsIdle reports whether the channel has no subscribers.
	IsIdle() bool
}

// IConnectionManager groups channels by name and routes published messages
// to them.
type IConnectionManager[T any] interface {
	// Start begins relaying bridged messages. Call before serving requests.
	Start()
	// Done stops the manager and releases every subscription.
	Done()
	// Subscribe registers a subscription on the named channel.
	Subscribe(channelName string) (<-chan T, error)
	// Publish pushes data to the named channel.
	Publish(channelName string, data T) error
	// Unsubscribe removes a subscription from the named channel.
	Unsubscribe(channelName string, ch <-chan T)
}
