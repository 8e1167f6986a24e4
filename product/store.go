package product

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	commonlog "github.com/sing3demons/go-order-admin/pkg/common-log"
	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

const collectionName = "products"

type ProductStore interface {
	GetByID(ctx *router.Context, id string) (*Product, error)
	Create(ctx *router.Context, p *Product) error
	Upsert(ctx *router.Context, p *Product) error
}

type productStore struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewProductStore(col *mongo.Collection, timeout time.Duration) ProductStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &productStore{col: col, timeout: timeout}
}

func (s *productStore) GetByID(ctx *router.Context, id string) (*Product, error) {
	cmd := "get_product"
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid}
	ctx.Log.SetDependencyMetadata(commonlog.LogDependencyMetadata{
		Dependency: "mongo",
	}).Info(logAction.DB_REQUEST(logAction.DB_READ, cmd), ProcessMongoReq{
		Collection: collectionName,
		Method:     "findOne",
		Query:      filter,
	})

	start := time.Now()
	pCtx, cancel := context.WithTimeout(ctx.Context, s.timeout)
	defer cancel()

	var p Product
	err = s.col.FindOne(pCtx, filter).Decode(&p)
	end := time.Since(start)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = ErrNotFound
	} else if err != nil {
		err = fmt.Errorf("find product: %w", err)
	}

	if err != nil {
		ctx.Log.SetSummary(commonlog.LogEventTag{
			Node:        "mongo",
			Command:     cmd,
			Code:        fmt.Sprint(statusCode(err)),
			Description: err.Error(),
			ResTime:     end.Microseconds(),
		}).Error(logAction.DB_RESPONSE(logAction.DB_READ, cmd), err.Error())
		return nil, err
	}

	ctx.Log.SetSummary(commonlog.LogEventTag{
		Node:        "mongo",
		Command:     cmd,
		Code:        "200",
		Description: "success",
		ResTime:     end.Microseconds(),
	}).Info(logAction.DB_RESPONSE(logAction.DB_READ, cmd), p)
	return &p, nil
}

func (s *productStore) Create(ctx *router.Context, p *Product) error {
	return s.write(ctx, "create_product", logAction.DB_CREATE, "insertOne", p, func(c context.Context) error {
		_, err := s.col.InsertOne(c, p)
		return err
	})
}

// Upsert replaces the product with the same id, inserting it when absent.
func (s *productStore) Upsert(ctx *router.Context, p *Product) error {
	return s.write(ctx, "upsert_product", logAction.DB_UPDATE, "replaceOne", p, func(c context.Context) error {
		_, err := s.col.ReplaceOne(c, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
		return err
	})
}

func (s *productStore) write(ctx *router.Context, cmd string, op logAction.DBAction, method string, p *Product, fn func(context.Context) error) error {
	ctx.Log.SetDependencyMetadata(commonlog.LogDependencyMetadata{
		Dependency: "mongo",
	}).Info(logAction.DB_REQUEST(op, cmd), ProcessMongoReq{
		Collection: collectionName,
		Method:     method,
		Document:   p,
	})

	start := time.Now()
	pCtx, cancel := context.WithTimeout(ctx.Context, s.timeout)
	defer cancel()

	err := fn(pCtx)
	end := time.Since(start)
	if err != nil {
		ctx.Log.SetSummary(commonlog.LogEventTag{
			Node:        "mongo",
			Command:     cmd,
			Code:        "500",
			Description: err.Error(),
			ResTime:     end.Microseconds(),
		}).Error(logAction.DB_RESPONSE(op, cmd), err.Error())
		return fmt.Errorf("%s: %w", cmd, err)
	}

	ctx.Log.SetSummary(commonlog.LogEventTag{
		Node:        "mongo",
		Command:     cmd,
		Code:        "200",
		Description: "success",
		ResTime:     end.Microseconds(),
	}).SetDependencyMetadata(commonlog.LogDependencyMetadata{
		Dependency:   "mongo",
		ResponseTime: end.Microseconds(),
		ResultCode:   "200",
	}).Info(logAction.DB_RESPONSE(op, cmd), map[string]any{"_id": p.ID.Hex()})
	return nil
}

type memoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemoryStore keeps products in process.
func NewMemoryStore() ProductStore {
	return &memoryStore{products: map[string]Product{}}
}

func (s *memoryStore) GetByID(ctx *router.Context, id string) (*Product, error) {
	if _, err := parseID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	p, ok := s.products[id]
	s.mu.RUnlock()

	tag := commonlog.NewEventTag("memory", "get_product")
	if !ok {
		ctx.Log.SetSummary(tag.Update("404", ErrNotFound.Error()))
		return nil, ErrNotFound
	}
	ctx.Log.SetSummary(tag.Update("200", "success"))
	return &p, nil
}

func (s *memoryStore) Create(ctx *router.Context, p *Product) error {
	return s.Upsert(ctx, p)
}

func (s *memoryStore) Upsert(ctx *router.Context, p *Product) error {
	s.mu.Lock()
	s.products[p.ID.Hex()] = *p
	s.mu.Unlock()

	ctx.Log.SetSummary(commonlog.NewEventTag("memory", "upsert_product").Update("200", "success"))
	return nil
}
