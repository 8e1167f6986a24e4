// Package admin holds the state of the admin orders screen: the order list it
// shows and the edits an administrator makes to it.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sing3demons/go-order-admin/client/orderapi"
	"github.com/sing3demons/go-order-admin/order"
	"github.com/sing3demons/go-order-admin/pkg/logger"
	"github.com/sing3demons/go-order-admin/pkg/querycache"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "loading"
	}
}

// Field is an order flag the administrator can toggle.
type Field string

const (
	FieldPaid      Field = "isPaid"
	FieldDelivered Field = "isDelivered"
)

const DeleteFailedMessage = "Failed to delete the order."

var ErrUnknownField = errors.New("admin: unknown order field")

// Alerter shows a blocking message to the administrator.
type Alerter func(message string)

// OrdersAPI is the part of the order client the view needs.
type OrdersAPI interface {
	GetAllOrders(ctx context.Context) *querycache.Subscription
	UpdateOrder(ctx context.Context, in orderapi.UpdateOrderInput) (*order.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type View struct {
	api    OrdersAPI
	sub    *querycache.Subscription
	alert  Alerter
	log    logger.ILogger
	change chan struct{}
	done   chan struct{}

	mu     sync.Mutex
	state  State
	err    error
	orders []order.Order
}

type Option func(*View)

func WithAlerter(a Alerter) Option {
	return func(v *View) { v.alert = a }
}

func WithLogger(l logger.ILogger) Option {
	return func(v *View) { v.log = l }
}

// NewView subscribes to the full order list and starts in StateLoading.
func NewView(ctx context.Context, api OrdersAPI, opts ...Option) *View {
	v := &View{
		api:    api,
		alert:  func(string) {},
		log:    logger.NewNop(),
		change: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.sub = api.GetAllOrders(ctx)
	go v.watch()
	return v
}

func (v *View) watch() {
	defer close(v.done)
	for r := range v.sub.Updates() {
		v.apply(r)
	}
}

func (v *View) apply(r querycache.Result) {
	v.mu.Lock()
	switch r.Status {
	case querycache.StatusSuccess:
		v.state = StateReady
		v.err = nil
		v.orders = append([]order.Order(nil), orderapi.Orders(r)...)
	case querycache.StatusError:
		v.state = StateFailed
		v.err = r.Err
		v.log.Errorf("fetch orders: %v", r.Err)
	default:
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()
	v.changed()
}

func (v *View) changed() {
	select {
	case v.change <- struct{}{}:
	default:
	}
}

// Changes signals after the visible state changed.
func (v *View) Changes() <-chan struct{} {
	return v.change
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Orders returns a copy of the rows currently shown.
func (v *View) Orders() []order.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]order.Order(nil), v.orders...)
}

// SetStatus stores a new value of field for the order id. On success the row is
// patched at once and the list is refetched in the background. A failure is only
// logged and leaves the row as it was.
func (v *View) SetStatus(ctx context.Context, id string, field Field, value bool) error {
	in := orderapi.UpdateOrderInput{OrderID: id}
	switch field {
	case FieldPaid:
		in.Paid = &value
	case FieldDelivered:
		in.Delivered = &value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	if _, err := v.api.UpdateOrder(ctx, in); err != nil {
		v.log.Errorf("update order %s %s: %v", id, field, err)
		return err
	}

	v.mu.Lock()
	for i := range v.orders {
		if v.orders[i].ID.Hex() != id {
			continue
		}
		b := value
		if field == FieldPaid {
			v.orders[i].IsPaid = &b
		} else {
			v.orders[i].IsDelivered = &b
		}
	}
	v.mu.Unlock()
	v.changed()

	go func() {
		if _, err := v.sub.Refetch(context.WithoutCancel(ctx)); err != nil {
			v.log.Errorf("refetch orders: %v", err)
		}
	}()
	return nil
}

// Delete removes the order id. The row disappears only once the server agreed;
// otherwise the administrator is alerted and the row stays.
func (v *View) Delete(ctx context.Context, id string) error {
	if err := v.api.DeleteOrder(ctx, id); err != nil {
		v.log.Errorf("delete order %s: %v", id, err)
		v.alert(DeleteFailedMessage)
		return err
	}

	v.mu.Lock()
	kept := v.orders[:0]
	for _, o := range v.orders {
		if o.ID.Hex() != id {
			kept = append(kept, o)
		}
	}
	v.orders = kept
	v.mu.Unlock()
	v.changed()
	return nil
}

// Refresh refetches the order list and waits for it.
func (v *View) Refresh(ctx context.Context) error {
	_, err := v.sub.Refetch(ctx)
	return err
}

// Close drops the subscription and waits for the view to stop watching it.
func (v *View) Close() {
	v.sub.Close()
	<-v.done
}
