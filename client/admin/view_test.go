package admin_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sing3demons/go-order-admin/client/admin"
	"github.com/sing3demons/go-order-admin/client/orderapi"
	"github.com/sing3demons/go-order-admin/order"
	"github.com/sing3demons/go-order-admin/pkg/logger"
	"github.com/sing3demons/go-order-admin/pkg/querycache"
)

type fakeAPI struct {
	cache *querycache.Cache

	mu        sync.Mutex
	orders    []order.Order
	fetches   int
	fetchErr  error
	updateErr error
	deleteErr error
	updates   []orderapi.UpdateOrderInput
}

func newFakeAPI(orders ...order.Order) *fakeAPI {
	return &fakeAPI{cache: querycache.New(), orders: orders}
}

func (f *fakeAPI) GetAllOrders(ctx context.Context) *querycache.Subscription {
	return f.cache.Subscribe(ctx, "orders/all", []string{orderapi.TagOrders}, func(context.Context) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.fetches++
		if f.fetchErr != nil {
			return nil, f.fetchErr
		}
		return append([]order.Order(nil), f.orders...), nil
	})
}

func (f *fakeAPI) UpdateOrder(_ context.Context, in orderapi.UpdateOrderInput) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.orders {
		if f.orders[i].ID.Hex() == in.OrderID {
			if in.Paid != nil {
				f.orders[i].IsPaid = in.Paid
			}
			if in.Delivered != nil {
				f.orders[i].IsDelivered = in.Delivered
			}
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, &orderapi.APIError{Status: 404, Message: "Order not found"}
}

func (f *fakeAPI) DeleteOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.orders {
		if f.orders[i].ID.Hex() == id {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return nil
		}
	}
	return &orderapi.APIError{Status: 404, Message: "Order not found"}
}

func (f *fakeAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func sampleOrder(name string) order.Order {
	return order.Order{
		ID:                    primitive.NewObjectID(),
		ProductCreationStatus: order.StatusNotStarted,
		Name:                  name,
		Email:                 strings.ToLower(name) + "@x.com",
		Address:               order.Address{Street: "1 Main St", City: "Springfield"},
		Phone:                 5551234,
		ProductIDs:            []string{"p1", "p2"},
		TotalPrice:            42.5,
		CreatedAt:             time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func ready(t *testing.T, v *admin.View) {
	t.Helper()
	require.Eventually(t, func() bool { return v.State() == admin.StateReady }, time.Second, 5*time.Millisecond)
}

func TestViewLoadsOrders(t *testing.T) {
	jane := sampleOrder("Jane")
	api := newFakeAPI(jane)
	v := admin.NewView(context.Background(), api)
	defer v.Close()

	ready(t, v)
	require.Len(t, v.Orders(), 1)
	assert.Equal(t, jane.ID, v.Orders()[0].ID)

	out := v.Render()
	assert.Contains(t, out, "User Name")
	assert.Contains(t, out, "Jane")
	assert.Contains(t, out, "p1, p2")
	assert.Contains(t, out, "$42.5")
	assert.Contains(t, out, "2024-03-01")
}

func TestViewRendersLoadingUntilFirstResult(t *testing.T) {
	release := make(chan struct{})
	api := &blockingAPI{fakeAPI: newFakeAPI(sampleOrder("Jane")), release: release}

	v := admin.NewView(context.Background(), api)
	defer v.Close()

	assert.Equal(t, admin.StateLoading, v.State())
	assert.Equal(t, "Loading...", v.Render())

	close(release)
	ready(t, v)
}

type blockingAPI struct {
	*fakeAPI
	release chan struct{}
}

func (b *blockingAPI) GetAllOrders(ctx context.Context) *querycache.Subscription {
	return b.cache.Subscribe(ctx, "orders/all", nil, func(context.Context) (any, error) {
		<-b.release
		return append([]order.Order(nil), b.orders...), nil
	})
}

func TestViewFailsWhenFetchFails(t *testing.T) {
	api := newFakeAPI()
	api.fetchErr = errors.New("connection refused")
	v := admin.NewView(context.Background(), api)
	defer v.Close()

	require.Eventually(t, func() bool { return v.State() == admin.StateFailed }, time.Second, 5*time.Millisecond)
	assert.Contains(t, v.Render(), "connection refused")
}

func TestSetStatusPatchesRowAndRefetches(t *testing.T) {
	jane := sampleOrder("Jane")
	api := newFakeAPI(jane)
	v := admin.NewView(context.Background(), api)
	defer v.Close()
	ready(t, v)

	require.NoError(t, v.SetStatus(context.Background(), jane.ID.Hex(), admin.FieldPaid, true))

	row := v.Orders()[0]
	require.NotNil(t, row.IsPaid)
	assert.True(t, *row.IsPaid)
	assert.Nil(t, row.IsDelivered)
	assert.Eventually(t, func() bool { return api.fetchCount() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, v.SetStatus(context.Background(), jane.ID.Hex(), admin.FieldDelivered, true))
	require.Len(t, api.updates, 2)
	assert.Nil(t, api.updates[1].Paid)
	require.NotNil(t, api.updates[1].Delivered)
	assert.True(t, *api.updates[1].Delivered)
}

func TestSetStatusFailureKeepsRow(t *testing.T) {
	jane := sampleOrder("Jane")
	api := newFakeAPI(jane)
	api.updateErr = errors.New("boom")
	log := logger.NewMockLogger()
	var alerts []string
	v := admin.NewView(context.Background(), api, admin.WithLogger(log), admin.WithAlerter(func(m string) { alerts = append(alerts, m) }))
	defer v.Close()
	ready(t, v)

	err := v.SetStatus(context.Background(), jane.ID.Hex(), admin.FieldPaid, true)
	require.Error(t, err)

	assert.Nil(t, v.Orders()[0].IsPaid)
	assert.Empty(t, alerts)
	assert.True(t, log.Called("Errorf"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, api.fetchCount())
}

func TestSetStatusUnknownField(t *testing.T) {
	api := newFakeAPI(sampleOrder("Jane"))
	v := admin.NewView(context.Background(), api)
	defer v.Close()
	ready(t, v)

	err := v.SetStatus(context.Background(), "x", admin.Field("name"), true)
	assert.ErrorIs(t, err, admin.ErrUnknownField)
	assert.Empty(t, api.updates)
}

func TestDeleteRemovesRow(t *testing.T) {
	jane, john := sampleOrder("Jane"), sampleOrder("John")
	api := newFakeAPI(jane, john)
	v := admin.NewView(context.Background(), api)
	defer v.Close()
	ready(t, v)

	require.NoError(t, v.Delete(context.Background(), jane.ID.Hex()))
	require.Len(t, v.Orders(), 1)
	assert.Equal(t, john.ID, v.Orders()[0].ID)
}

func TestDeleteFailureAlerts(t *testing.T) {
	jane := sampleOrder("Jane")
	api := newFakeAPI(jane)
	api.deleteErr = errors.New("boom")

	var alerts []string
	v := admin.NewView(context.Background(), api, admin.WithAlerter(func(m string) { alerts = append(alerts, m) }))
	defer v.Close()
	ready(t, v)

	require.Error(t, v.Delete(context.Background(), jane.ID.Hex()))
	assert.Equal(t, []string{"Failed to delete the order."}, alerts)
	assert.Len(t, v.Orders(), 1)
}

func TestRowFallsBackToNA(t *testing.T) {
	row := admin.Row(order.Order{ID: primitive.NewObjectID(), Name: "Jane"})
	require.Len(t, row, len(admin.Columns))
	assert.Equal(t, "Jane", row[1])
	for _, i := range []int{2, 3, 4, 5, 6, 7, 8, 9, 11, 12} {
		assert.Equal(t, "N/A", row[i], admin.Columns[i])
	}
	assert.Equal(t, "$0", row[10])
}

func TestRenderTableMarksSelection(t *testing.T) {
	out := admin.RenderTable([]order.Order{sampleOrder("Jane"), sampleOrder("John")}, 1)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], ">"))
	assert.False(t, strings.HasPrefix(lines[1], ">"))
	assert.Equal(t, "No orders found.", admin.RenderTable(nil, 0))
}
