//go:generate mockgen -package=session -destination=mock.go -source=interfaces.go

package session

import "context"

// IStore persists session data by session id. The Redis adapter implements
// it; tests use the generated mock.
type IStore interface {
	Load(ctx context.Context, name string) (map[string]string, error)
	Save(ctx context.Context, name string, data map[string]string) error
}

// ISession is one request's view of its session: lazily loaded, mutated in
// memory and written back with Save.
type ISession interface {
	Load() error
	Get(key string) string
	Set(key, value string)
	Delete(key string)
	Clear()
	Save() error
}
