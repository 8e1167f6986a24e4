package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

type mongoStore struct {
	col     *mongo.Collection
	timeout time.Duration
}

// NewMongoStore keeps orders in col.
func NewMongoStore(col *mongo.Collection, timeout time.Duration) Store {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &mongoStore{col: col, timeout: timeout}
}

func (s *mongoStore) withTimeout(ctx *router.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Context, s.timeout)
}

func (s *mongoStore) find(ctx *router.Context, cmd string, filter bson.M) ([]Order, error) {
	call := beginDBCall(ctx, "mongo", logAction.DB_READ, cmd, ProcessMongoReq{
		Collection: collectionName,
		Method:     "find",
		Query:      filter,
	})

	pCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	cursor, err := s.col.Find(pCtx, filter)
	if err != nil {
		err = fmt.Errorf("find orders: %w", err)
		call.end(nil, err)
		return nil, err
	}

	orders := []Order{}
	if err := cursor.All(pCtx, &orders); err != nil {
		err = fmt.Errorf("decode orders: %w", err)
		call.end(nil, err)
		return nil, err
	}

	call.end(orders, nil)
	return orders, nil
}

func (s *mongoStore) ListAll(ctx *router.Context) ([]Order, error) {
	return s.find(ctx, "list_orders", bson.M{})
}

func (s *mongoStore) ListByEmail(ctx *router.Context, email string) ([]Order, error) {
	return s.find(ctx, "list_orders_by_email", bson.M{"email": email})
}

func (s *mongoStore) Create(ctx *router.Context, req *CreateOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc := req.NewOrder(time.Now().UTC().Truncate(time.Millisecond))
	call := beginDBCall(ctx, "mongo", logAction.DB_CREATE, "create_order", ProcessMongoReq{
		Collection: collectionName,
		Method:     "insertOne",
		Document:   doc,
	})

	pCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.col.InsertOne(pCtx, doc); err != nil {
		err = fmt.Errorf("insert order: %w", err)
		call.end(nil, err)
		return nil, err
	}

	call.end(doc, nil)
	return &doc, nil
}

func (s *mongoStore) UpdateByID(ctx *router.Context, id string, fields UpdateOrderFields) (*Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.D{}
	if fields.IsPaid != nil {
		set = append(set, bson.E{Key: "isPaid", Value: *fields.IsPaid})
	}
	if fields.IsDelivered != nil {
		set = append(set, bson.E{Key: "isDelivered", Value: *fields.IsDelivered})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: nextUpdatedAt})

	filter := bson.M{"_id": oid}
	update := mongo.Pipeline{{{Key: "$set", Value: set}}}
	call := beginDBCall(ctx, "mongo", logAction.DB_UPDATE, "update_order", ProcessMongoReq{
		Collection: collectionName,
		Method:     "findOneAndUpdate",
		Query:      filter,
		Document:   update,
		Options:    map[string]any{"returnDocument": "after"},
	})

	pCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated Order
	err = s.col.FindOneAndUpdate(pCtx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		err = notFoundOr(err, "update order")
		call.end(nil, err)
		return nil, err
	}

	call.end(updated, nil)
	return &updated, nil
}

func (s *mongoStore) DeleteByID(ctx *router.Context, id string) (*Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid}
	call := beginDBCall(ctx, "mongo", logAction.DB_DELETE, "delete_order", ProcessMongoReq{
		Collection: collectionName,
		Method:     "findOneAndDelete",
		Query:      filter,
	})

	pCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var deleted Order
	if err := s.col.FindOneAndDelete(pCtx, filter).Decode(&deleted); err != nil {
		err = notFoundOr(err, "delete order")
		call.end(nil, err)
		return nil, err
	}

	call.end(deleted, nil)
	return &deleted, nil
}

// nextUpdatedAt is the server clock, or one millisecond past the stored
// updatedAt when the clock has not moved beyond it.
var nextUpdatedAt = bson.D{{Key: "$max", Value: bson.A{
	"$$NOW",
	bson.D{{Key: "$add", Value: bson.A{"$updatedAt", 1}}},
}}}

func notFoundOr(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
