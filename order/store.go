package order

import (
	"strconv"
	"time"

	commonlog "github.com/sing3demons/go-order-admin/pkg/common-log"
	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

const collectionName = "orders"

//go:generate mockgen -source=store.go -destination=mock_store.go -package=order

// Store persists orders. Update and delete return ErrNotFound for an unknown id
// and a *ValidationError for a malformed one.
type Store interface {
	ListAll(ctx *router.Context) ([]Order, error)
	ListByEmail(ctx *router.Context, email string) ([]Order, error)
	Create(ctx *router.Context, req *CreateOrderRequest) (*Order, error)
	UpdateByID(ctx *router.Context, id string, fields UpdateOrderFields) (*Order, error)
	DeleteByID(ctx *router.Context, id string) (*Order, error)
}

// ProcessMongoReq describes a store call in the detail log.
type ProcessMongoReq struct {
	Collection string `json:"collection"`
	Method     string `json:"method"`
	Query      any    `json:"query,omitempty"`
	Document   any    `json:"document,omitempty"`
	Options    any    `json:"options,omitempty"`
}

// dbCall logs one store operation as a DB_REQUEST / DB_RESPONSE pair and adds
// its result to the transaction summary.
type dbCall struct {
	ctx   *router.Context
	node  string
	cmd   string
	op    logAction.DBAction
	start time.Time
}

func beginDBCall(ctx *router.Context, node string, op logAction.DBAction, cmd string, req ProcessMongoReq) *dbCall {
	ctx.Log.SetDependencyMetadata(commonlog.LogDependencyMetadata{
		Dependency: node,
	}).Info(logAction.DB_REQUEST(op, cmd), req, prefixed("document", maskOptions)...)

	return &dbCall{ctx: ctx, node: node, cmd: cmd, op: op, start: time.Now()}
}

func (c *dbCall) end(result any, err error) {
	elapsed := time.Since(c.start).Microseconds()
	code := StatusCode(err)

	tag := commonlog.LogEventTag{
		Node:        c.node,
		Command:     c.cmd,
		Code:        strconv.Itoa(code),
		Description: "success",
		ResTime:     elapsed,
	}

	if err != nil {
		tag.Description = err.Error()
		c.ctx.Log.SetSummary(tag).Error(logAction.DB_RESPONSE(c.op, c.cmd), err.Error())
		return
	}

	c.ctx.Log.SetSummary(tag).SetDependencyMetadata(commonlog.LogDependencyMetadata{
		Dependency:   c.node,
		ResponseTime: elapsed,
		ResultCode:   tag.Code,
	}).Info(logAction.DB_RESPONSE(c.op, c.cmd), result, maskOptions...)
}
