package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sing3demons/go-order-admin/pkg/kafka"
	"github.com/sing3demons/go-order-admin/pkg/logger"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

func testCtx() *router.Context {
	log := logger.NewMockLogger()
	return router.NewContext(nil, kafka.NewMessage(context.Background()), nil, router.NewLogService(log, log, log), nil)
}

func createJane(t *testing.T, s Store) *Order {
	t.Helper()
	phone := Phone(5551234)
	total := Price(42.5)
	o, err := s.Create(testCtx(), &CreateOrderRequest{
		Name:       "Jane",
		Email:      "jane@x.com",
		Address:    &AddressInput{Street: "1 Main St", City: "Springfield"},
		Phone:      &phone,
		ProductIDs: []string{"p1"},
		TotalPrice: &total,
	})
	require.NoError(t, err)
	return o
}

func TestMemoryStoreUpdatedAtStrictlyIncreases(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &memoryStore{now: func() time.Time { return frozen }}
	o := createJane(t, s)

	paid := true
	first, err := s.UpdateByID(testCtx(), o.ID.Hex(), UpdateOrderFields{IsPaid: &paid})
	require.NoError(t, err)
	second, err := s.UpdateByID(testCtx(), o.ID.Hex(), UpdateOrderFields{})
	require.NoError(t, err)

	assert.True(t, first.UpdatedAt.After(o.UpdatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.True(t, *second.IsPaid, "unset fields are left alone")
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	o := createJane(t, s)
	o.ProductIDs[0] = "changed"

	list, err := s.ListAll(testCtx())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ProductIDs[0])

	list[0].Name = "Mallory"
	again, _ := s.ListAll(testCtx())
	assert.Equal(t, "Jane", again[0].Name)
}

func TestMemoryStoreConcurrentUpdatesLastWriteWins(t *testing.T) {
	s := NewMemoryStore()
	o := createJane(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(paid bool) {
			defer wg.Done()
			_, err := s.UpdateByID(testCtx(), o.ID.Hex(), UpdateOrderFields{IsPaid: &paid})
			assert.NoError(t, err)
		}(i%2 == 0)
	}
	wg.Wait()

	list, err := s.ListAll(testCtx())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].IsPaid)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	a := createJane(t, s)
	b := createJane(t, s)

	deleted, err := s.DeleteByID(testCtx(), a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)

	_, err = s.DeleteByID(testCtx(), a.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	list, _ := s.ListByEmail(testCtx(), "jane@x.com")
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}
