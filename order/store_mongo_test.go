package order_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/sing3demons/go-order-admin/order"
)

func sampleOrder() order.Order {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return order.Order{
		ID:                    primitive.NewObjectID(),
		ProductCreationStatus: order.StatusNotStarted,
		Name:                  "Jane",
		Email:                 "jane@x.com",
		Address:               order.Address{Street: "1 Main St", City: "Springfield"},
		Phone:                 5551234,
		ProductIDs:            []string{"p1"},
		TotalPrice:            42.5,
		CreatedAt:             at,
		UpdatedAt:             at,
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list all", func(mt *mtest.T) {
		o := sampleOrder()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bookstore.orders", mtest.FirstBatch, toDoc(mt.T, o)))

		got, err := order.NewMongoStore(mt.Coll, time.Second).ListAll(newCtx())

		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, o.ID, got[0].ID)
		assert.Equal(mt, "Springfield", got[0].Address.City)
		assert.Equal(mt, order.Phone(5551234), got[0].Phone)
		assert.True(mt, o.CreatedAt.Equal(got[0].CreatedAt))
	})

	mt.Run("list empty is not nil", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bookstore.orders", mtest.FirstBatch))

		got, err := order.NewMongoStore(mt.Coll, time.Second).ListAll(newCtx())

		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("list by email", func(mt *mtest.T) {
		o := sampleOrder()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bookstore.orders", mtest.FirstBatch, toDoc(mt.T, o)))

		got, err := order.NewMongoStore(mt.Coll, time.Second).ListByEmail(newCtx(), "jane@x.com")

		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, "jane@x.com", got[0].Email)
	})

	mt.Run("list failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}))

		_, err := order.NewMongoStore(mt.Coll, time.Second).ListAll(newCtx())

		require.Error(mt, err)
		assert.Equal(mt, 500, order.StatusCode(err))
	})

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		phone := order.Phone(5551234)
		total := order.Price(42.5)
		req := &order.CreateOrderRequest{
			Name:       "Jane",
			Email:      "jane@x.com",
			Address:    &order.AddressInput{Street: "1 Main St", City: "Springfield"},
			Phone:      &phone,
			ProductIDs: []string{"p1"},
			TotalPrice: &total,
		}

		got, err := order.NewMongoStore(mt.Coll, time.Second).Create(newCtx(), req)

		require.NoError(mt, err)
		assert.False(mt, got.ID.IsZero())
		assert.Equal(mt, order.StatusNotStarted, got.ProductCreationStatus)
		assert.False(mt, got.CreatedAt.IsZero())
	})

	mt.Run("create invalid never reaches mongo", func(mt *mtest.T) {
		_, err := order.NewMongoStore(mt.Coll, time.Second).Create(newCtx(), &order.CreateOrderRequest{Name: "Jane"})

		assert.True(mt, order.IsValidation(err))
	})

	mt.Run("create write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		phone := order.Phone(1)
		total := order.Price(1)
		req := &order.CreateOrderRequest{
			Name: "a", Email: "b", Address: &order.AddressInput{Street: "s", City: "c"}, Phone: &phone, TotalPrice: &total,
		}

		_, err := order.NewMongoStore(mt.Coll, time.Second).Create(newCtx(), req)

		require.Error(mt, err)
		assert.Equal(mt, 500, order.StatusCode(err))
	})

	mt.Run("update", func(mt *mtest.T) {
		o := sampleOrder()
		o.IsPaid = boolPtr(true)
		o.IsDelivered = boolPtr(false)
		o.UpdatedAt = o.UpdatedAt.Add(time.Minute)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt.T, o)}))

		got, err := order.NewMongoStore(mt.Coll, time.Second).UpdateByID(newCtx(), o.ID.Hex(), order.UpdateOrderFields{
			IsPaid:      boolPtr(true),
			IsDelivered: boolPtr(false),
		})

		require.NoError(mt, err)
		require.NotNil(mt, got.IsPaid)
		assert.True(mt, *got.IsPaid)
		assert.False(mt, *got.IsDelivered)
		assert.True(mt, got.UpdatedAt.After(got.CreatedAt))
	})

	mt.Run("update moves updatedAt past the stored value", func(mt *mtest.T) {
		o := sampleOrder()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt.T, o)}))

		_, err := order.NewMongoStore(mt.Coll, time.Second).UpdateByID(newCtx(), o.ID.Hex(), order.UpdateOrderFields{IsPaid: boolPtr(true)})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "findAndModify", evt.CommandName)
		stages, ok := evt.Command.Lookup("update").ArrayOK()
		require.True(mt, ok, "update must be a pipeline")

		set := stages.Index(0).Value().Document().Lookup("$set").Document()
		assert.True(mt, set.Lookup("isPaid").Boolean())
		_, hasDelivered := set.Lookup("isDelivered").BooleanOK()
		assert.False(mt, hasDelivered)

		bounds := set.Lookup("updatedAt", "$max").Array()
		assert.Equal(mt, "$$NOW", bounds.Index(0).Value().StringValue())
		add := bounds.Index(1).Value().Document().Lookup("$add").Array()
		assert.Equal(mt, "$updatedAt", add.Index(0).Value().StringValue())
		assert.EqualValues(mt, 1, add.Index(1).Value().AsInt64())
	})

	mt.Run("update unknown id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := order.NewMongoStore(mt.Coll, time.Second).UpdateByID(newCtx(), primitive.NewObjectID().Hex(), order.UpdateOrderFields{IsPaid: boolPtr(true)})

		assert.ErrorIs(mt, err, order.ErrNotFound)
	})

	mt.Run("update malformed id", func(mt *mtest.T) {
		_, err := order.NewMongoStore(mt.Coll, time.Second).UpdateByID(newCtx(), "123", order.UpdateOrderFields{})

		assert.Equal(mt, 400, order.StatusCode(err))
	})

	mt.Run("delete", func(mt *mtest.T) {
		o := sampleOrder()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(mt.T, o)}))

		got, err := order.NewMongoStore(mt.Coll, time.Second).DeleteByID(newCtx(), o.ID.Hex())

		require.NoError(mt, err)
		assert.Equal(mt, o.ID, got.ID)
	})

	mt.Run("delete unknown id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := order.NewMongoStore(mt.Coll, time.Second).DeleteByID(newCtx(), primitive.NewObjectID().Hex())

		assert.ErrorIs(mt, err, order.ErrNotFound)
	})

	mt.Run("delete failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}))

		_, err := order.NewMongoStore(mt.Coll, time.Second).DeleteByID(newCtx(), primitive.NewObjectID().Hex())

		require.Error(mt, err)
		assert.NotErrorIs(mt, err, order.ErrNotFound)
		assert.Equal(mt, 500, order.StatusCode(err))
	})
}
