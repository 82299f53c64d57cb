package session

import (
	"context"
	"fmt"
)

type sessionImpl struct {
	id    string
	ctx   context.Context
	data  map[string]string
	store IStore
}

// NewSession builds a session bound to id. Data is not loaded until Load.
func NewSession(ctx context.Context, id string, store IStore) ISession {
	if ctx == nil {
		ctx = context.Background()
	}
	return &sessionImpl{
		id:    id,
		ctx:   ctx,
		store: store,
		data:  nil,
	}
}

// Load fetches the session data from the store. Loading twice is a no-op.
func (s *sessionImpl) Load() error {
	const op = "sessionImpl.Load"
	if s.data != nil {
		return nil
	}

	data, err := s.store.Load(s.ctx, s.id)
	if err != nil {
		return fmt.Errorf("%s: failed to load session: %w", op, err)
	}

	s.data = data
	if s.data == nil {
		s.data = make(map[string]string)
	}
	return nil
}

func (s *sessionImpl) Get(key string) string {
	if s.data == nil {
		return ""
	}
	return s.data[key]
}

func (s *sessionImpl) Set(key string, value string) {
	if s.data == nil {
		s.data = make(map[string]string)
	}
	s.data[key] = value
}

func (s *sessionImpl) Delete(key string) {
	if s.data != nil {
		delete(s.data, key)
	}
}

// Clear drops all keys, signing the caller out once saved.
func (s *sessionImpl) Clear() {
	s.data = make(map[string]string)
}

// Save writes the session data back to the store.
func (s *sessionImpl) Save() error {
	const op = "sessionImpl.Save"
	if s.data == nil {
		return nil
	}
	if err := s.store.Save(s.ctx, s.id, s.data); err != nil {
		return fmt.Errorf("%s: failed to save session: %w", op, err)
	}
	return nil
}
