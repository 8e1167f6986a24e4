// Package querycache keeps the results of keyed queries, shares them between
// subscribers and refetches them when a tag they carry is invalidated.
package querycache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Fetcher loads the value of one key.
type Fetcher func(ctx context.Context) (any, error)

// Result is the state of a key as seen by subscribers. Data keeps the last
// successful value while a refetch is loading or after it failed.
type Result struct {
	Data      any
	Err       error
	Status    Status
	FetchedAt time.Time
}

type entry struct {
	key    string
	tags   []string
	fetch  Fetcher
	result Result
	subs   map[int]*Subscription
	nextID int
	// gen advances on every invalidation. A fetch started under an older gen
	// neither shares with newer fetches nor stores its result.
	gen uint64
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	tags    map[string]map[string]struct{}
	seq     uint64

	group        singleflight.Group
	inflight     sync.WaitGroup
	fetchTimeout time.Duration
}

type Option func(*Cache)

// WithFetchTimeout bounds fetches started by invalidation.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) { c.fetchTimeout = d }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:      map[string]*entry{},
		tags:         map[string]map[string]struct{}{},
		fetchTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers interest in key. The first subscriber of a key without a
// result starts a fetch in the background; later subscribers share the result.
func (c *Cache) Subscribe(ctx context.Context, key string, tags []string, fetch Fetcher) *Subscription {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.seq++
		e = &entry{key: key, subs: map[int]*Subscription{}, gen: c.seq}
		c.entries[key] = e
	}
	e.fetch = fetch
	e.tags = append([]string(nil), tags...)
	for _, tag := range tags {
		if c.tags[tag] == nil {
			c.tags[tag] = map[string]struct{}{}
		}
		c.tags[tag][key] = struct{}{}
	}

	sub := &Subscription{cache: c, key: key, id: e.nextID, updates: make(chan Result, 1)}
	e.nextID++
	e.subs[sub.id] = sub

	start := e.result.Status == StatusIdle || e.result.Status == StatusError
	if start {
		c.setLoading(e)
	} else {
		sub.updates <- e.result
	}
	c.mu.Unlock()

	if start {
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			_, _ = c.run(context.WithoutCancel(ctx), key)
		}()
	}
	return sub
}

// Get returns the current result of key.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return e.result, true
}

// Subscribers reports how many subscriptions key has.
func (c *Cache) Subscribers(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return len(e.subs)
	}
	return 0
}

// Refetch runs the fetcher of key now. Concurrent calls for one key share a
// single fetch.
func (c *Cache) Refetch(ctx context.Context, key string) (Result, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.setLoading(e)
	}
	c.mu.Unlock()
	if !ok {
		return Result{}, ErrUnknownKey
	}
	return c.run(ctx, key)
}

// Invalidate refetches, in the background, every key tagged with one of tags
// that still has subscribers. Keys without subscribers are forgotten.
func (c *Cache) Invalidate(tags ...string) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()
		_ = c.InvalidateWait(ctx, tags...)
	}()
}

// InvalidateWait is Invalidate that returns once every refetch finished, with
// the first fetch error.
func (c *Cache) InvalidateWait(ctx context.Context, tags ...string) error {
	keys := c.staleKeys(tags)

	var g errgroup.Group
	for _, key := range keys {
		key := key
		g.Go(func() error {
			_, err := c.run(ctx, key)
			return err
		})
	}
	return g.Wait()
}

// Wait blocks until background fetches started so far are done.
func (c *Cache) Wait() {
	c.inflight.Wait()
}

func (c *Cache) staleKeys(tags []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := map[string]struct{}{}
	var keys []string
	for _, tag := range tags {
		for key := range c.tags[tag] {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			e := c.entries[key]
			if e == nil || len(e.subs) == 0 {
				c.drop(key)
				continue
			}
			c.seq++
			e.gen = c.seq
			c.setLoading(e)
			keys = append(keys, key)
		}
	}
	return keys
}

// drop removes key from the entries and from every tag index. c.mu must be held.
func (c *Cache) drop(key string) {
	if e, ok := c.entries[key]; ok {
		for _, tag := range e.tags {
			delete(c.tags[tag], key)
			if len(c.tags[tag]) == 0 {
				delete(c.tags, tag)
			}
		}
	}
	delete(c.entries, key)
}

// setLoading marks e loading and tells its subscribers. c.mu must be held.
func (c *Cache) setLoading(e *entry) {
	if e.result.Status == StatusLoading {
		return
	}
	e.result.Status = StatusLoading
	c.notify(e)
}

func (c *Cache) run(ctx context.Context, key string) (Result, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	var (
		fetch Fetcher
		gen   uint64
	)
	if ok {
		fetch = e.fetch
		gen = e.gen
	}
	c.mu.Unlock()
	if !ok || fetch == nil {
		return Result{}, ErrUnknownKey
	}

	v, err, _ := c.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		return fetch(ctx)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok = c.entries[key]
	if !ok {
		return Result{Data: v, Err: err}, err
	}
	if e.gen != gen {
		return Result{Data: v, Err: err, Status: StatusLoading}, err
	}

	e.result.FetchedAt = time.Now()
	e.result.Err = err
	if err != nil {
		e.result.Status = StatusError
	} else {
		e.result.Status = StatusSuccess
		e.result.Data = v
	}
	c.notify(e)
	return e.result, err
}

// notify pushes the current result to every subscriber, replacing any update
// they have not read yet. c.mu must be held.
func (c *Cache) notify(e *entry) {
	for _, sub := range e.subs {
		select {
		case sub.updates <- e.result:
		default:
			select {
			case <-sub.updates:
			default:
			}
			select {
			case sub.updates <- e.result:
			default:
			}
		}
	}
}

func (c *Cache) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sub.key]
	if !ok {
		return
	}
	if _, ok := e.subs[sub.id]; !ok {
		return
	}
	delete(e.subs, sub.id)
	close(sub.updates)
}
