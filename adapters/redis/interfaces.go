//go:generate mockgen -package=redis -destination=mock.go -source=interfaces.go

package redis

// IProducer publishes values of T onto a Redis stream.
type IProducer[T any] interface {
	Start()
	Publish(data T) error
	Close()
}

// IConsumer tails a Redis stream and delivers parsed values of T.
type IConsumer[T any] interface {
	Start()
	Subscribe() <-chan T
	Close()
}
