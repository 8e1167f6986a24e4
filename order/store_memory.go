package order

import (
	"sync"
	"time"

	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

type memoryStore struct {
	mu     sync.RWMutex
	orders []Order
	now    func() time.Time
}

// NewMemoryStore keeps orders in process, in insertion order.
func NewMemoryStore() Store {
	return &memoryStore{now: func() time.Time { return time.Now().UTC() }}
}

func (s *memoryStore) filter(ctx *router.Context, cmd string, query map[string]any, keep func(Order) bool) []Order {
	call := beginDBCall(ctx, "memory", logAction.DB_READ, cmd, ProcessMongoReq{
		Collection: collectionName,
		Method:     "find",
		Query:      query,
	})

	s.mu.RLock()
	out := []Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	s.mu.RUnlock()

	call.end(out, nil)
	return out
}

func (s *memoryStore) ListAll(ctx *router.Context) ([]Order, error) {
	return s.filter(ctx, "list_orders", map[string]any{}, func(Order) bool { return true }), nil
}

func (s *memoryStore) ListByEmail(ctx *router.Context, email string) ([]Order, error) {
	return s.filter(ctx, "list_orders_by_email", map[string]any{"email": email}, func(o Order) bool {
		return o.Email == email
	}), nil
}

func (s *memoryStore) Create(ctx *router.Context, req *CreateOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc := req.NewOrder(s.now())
	call := beginDBCall(ctx, "memory", logAction.DB_CREATE, "create_order", ProcessMongoReq{
		Collection: collectionName,
		Method:     "insertOne",
		Document:   doc,
	})

	s.mu.Lock()
	s.orders = append(s.orders, clone(doc))
	s.mu.Unlock()

	call.end(doc, nil)
	return &doc, nil
}

func (s *memoryStore) UpdateByID(ctx *router.Context, id string, fields UpdateOrderFields) (*Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	call := beginDBCall(ctx, "memory", logAction.DB_UPDATE, "update_order", ProcessMongoReq{
		Collection: collectionName,
		Method:     "findOneAndUpdate",
		Query:      map[string]any{"_id": id},
		Document:   fields,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID != oid {
			continue
		}
		fields.apply(&s.orders[i])
		now := s.now()
		if !now.After(s.orders[i].UpdatedAt) {
			now = s.orders[i].UpdatedAt.Add(time.Millisecond)
		}
		s.orders[i].UpdatedAt = now

		updated := clone(s.orders[i])
		call.end(updated, nil)
		return &updated, nil
	}

	call.end(nil, ErrNotFound)
	return nil, ErrNotFound
}

func (s *memoryStore) DeleteByID(ctx *router.Context, id string) (*Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	call := beginDBCall(ctx, "memory", logAction.DB_DELETE, "delete_order", ProcessMongoReq{
		Collection: collectionName,
		Method:     "findOneAndDelete",
		Query:      map[string]any{"_id": id},
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID != oid {
			continue
		}
		deleted := s.orders[i]
		s.orders = append(s.orders[:i], s.orders[i+1:]...)
		call.end(deleted, nil)
		return &deleted, nil
	}

	call.end(nil, ErrNotFound)
	return nil, ErrNotFound
}

// clone copies the slices and pointers of o so callers cannot alias stored state.
func clone(o Order) Order {
	o.ProductIDs = append([]string{}, o.ProductIDs...)
	if o.IsPaid != nil {
		v := *o.IsPaid
		o.IsPaid = &v
	}
	if o.IsDelivered != nil {
		v := *o.IsDelivered
		o.IsDelivered = &v
	}
	return o
}
