package querycache

import (
	"context"
	"errors"
	"sync"
)

var ErrUnknownKey = errors.New("querycache: unknown key")

// Subscription is one consumer of a key.
type Subscription struct {
	cache   *Cache
	key     string
	id      int
	updates chan Result
	once    sync.Once
}

func (s *Subscription) Key() string {
	return s.key
}

// Updates delivers the latest result each time it changes. It is closed by Close.
func (s *Subscription) Updates() <-chan Result {
	return s.updates
}

func (s *Subscription) Result() Result {
	r, _ := s.cache.Get(s.key)
	return r
}

func (s *Subscription) Refetch(ctx context.Context) (Result, error) {
	return s.cache.Refetch(ctx, s.key)
}

func (s *Subscription) Close() {
	s.once.Do(func() { s.cache.unsubscribe(s) })
}
