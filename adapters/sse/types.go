package sse

// PublishRequest carries a message and the channel it targets across the
// Redis stream bridge.
type PublishRequest[T any] struct {
	Channel string `json:"channel"`
	Message T      `json:"message"`
}
