package order

import (
	"net/http"

	commonlog "github.com/sing3demons/go-order-admin/pkg/common-log"
	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

const (
	msgBadRequest      = "Bad request"
	msgServerError     = "Server error"
	msgNoOrdersByEmail = "No orders found for this email"
	msgOrderNotFound   = "Order not found"
	msgOrderDeleted    = "Order deleted successfully"
	msgDeleteFailed    = "Error deleting order"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the order API under /api/orders. Listing every order,
// updating and deleting are admin routes.
func RegisterRoutes(app router.IApplication, h *Handler) {
	admin := app.AdminOnly()

	app.Get("/api/orders", h.GetAllOrders, admin)
	app.Get("/api/orders/", h.GetAllOrders, admin)
	app.Get("/api/orders/email/{email}", h.GetOrdersByEmail)
	app.Post("/api/orders", h.CreateOrder)
	app.Post("/api/orders/", h.CreateOrder)
	app.Patch("/api/orders/{id}", h.UpdateOrder, admin)
	app.Delete("/api/orders/delete/{id}", h.DeleteOrder, admin)
}

func inbound(ctx *router.Context, body any) map[string]any {
	in := map[string]any{
		"headers": ctx.Headers(),
		"method":  ctx.Method(),
		"url":     ctx.URL(),
	}
	if body != nil {
		in["body"] = body
	}
	return in
}

// fail answers with the status StatusCode picks for err.
func (h *Handler) fail(ctx *router.Context, summary commonlog.LogEventTag, err error, messages map[int]string) error {
	code := StatusCode(err)
	message, ok := messages[code]
	if !ok {
		message = msgServerError
	}

	ctx.Log.SetSummaryLogErrorSource(commonlog.ErrorSourceType{
		Node:        summary.Node,
		Code:        code,
		Description: err.Error(),
	}).Error(logAction.EXCEPTION(summary.Command), err.Error())

	resp := ErrorResponse{Message: message}
	if code != http.StatusNotFound {
		resp.Error = err.Error()
	}
	return ctx.JSON(code, resp)
}

func (h *Handler) GetAllOrders(ctx *router.Context) error {
	summary := commonlog.NewEventTag("client", "get_all_orders")
	ctx.Log.SetSummary(summary).Info(logAction.INBOUND(summary.Command), inbound(ctx, nil))

	orders, err := h.store.ListAll(ctx)
	if err != nil {
		return h.fail(ctx, summary, err, nil)
	}

	return ctx.Mask(maskOptions...).JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrdersByEmail(ctx *router.Context) error {
	summary := commonlog.NewEventTag("client", "get_orders_by_email")
	email := ctx.PathParam("email")
	in := inbound(ctx, nil)
	in["email"] = email
	ctx.Log.SetSummary(summary).Info(logAction.INBOUND(summary.Command), in, maskOptions...)

	orders, err := h.store.ListByEmail(ctx, email)
	if err != nil {
		return h.fail(ctx, summary, err, nil)
	}

	if len(orders) == 0 {
		return ctx.JSON(http.StatusNotFound, ErrorResponse{Message: msgNoOrdersByEmail})
	}

	return ctx.Mask(maskOptions...).JSON(http.StatusOK, orders)
}

func (h *Handler) CreateOrder(ctx *router.Context) error {
	summary := commonlog.NewEventTag("client", "create_order")

	var req CreateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		ve := &ValidationError{Reason: err.Error(), Err: err}
		ctx.Log.SetSummary(summary.Update("400", ve.Error())).Error(logAction.INBOUND(summary.Command), inbound(ctx, nil))
		return h.fail(ctx, summary, ve, map[int]string{http.StatusBadRequest: msgBadRequest})
	}
	ctx.Log.SetSummary(summary).Info(logAction.INBOUND(summary.Command), inbound(ctx, req), prefixed("body", maskOptions)...)

	created, err := h.store.Create(ctx, &req)
	if err != nil {
		return h.fail(ctx, summary, err, map[int]string{http.StatusBadRequest: msgBadRequest})
	}

	publish(ctx, TopicOrderCreated, created)
	return ctx.Mask(maskOptions...).JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateOrder(ctx *router.Context) error {
	summary := commonlog.NewEventTag("client", "update_order")
	id := ctx.PathParam("id")

	var req UpdateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		ve := &ValidationError{Reason: err.Error(), Err: err}
		ctx.Log.SetSummary(summary.Update("400", ve.Error())).Error(logAction.INBOUND(summary.Command), inbound(ctx, nil))
		return h.fail(ctx, summary, ve, map[int]string{http.StatusBadRequest: msgBadRequest})
	}
	in := inbound(ctx, req)
	in["id"] = id
	ctx.Log.SetSummary(summary).Info(logAction.INBOUND(summary.Command), in)

	if req.ProductCreationStatus != nil {
		ctx.Log.Debug(logAction.APP_LOGIC(summary.Command, "ignored_field"), map[string]any{
			"productCreationStatus": *req.ProductCreationStatus,
			"reason":                "not writable through PATCH",
		})
	}

	updated, err := h.store.UpdateByID(ctx, id, req.UpdateOrderFields)
	if err != nil {
		return h.fail(ctx, summary, err, map[int]string{
			http.StatusBadRequest: msgBadRequest,
			http.StatusNotFound:   msgOrderNotFound,
		})
	}

	publish(ctx, TopicOrderUpdated, updated)
	return ctx.Mask(maskOptions...).JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteOrder(ctx *router.Context) error {
	summary := commonlog.NewEventTag("client", "delete_order")
	id := ctx.PathParam("id")
	in := inbound(ctx, nil)
	in["id"] = id
	ctx.Log.SetSummary(summary).Info(logAction.INBOUND(summary.Command), in)

	deleted, err := h.store.DeleteByID(ctx, id)
	if err != nil {
		return h.fail(ctx, summary, err, map[int]string{
			http.StatusBadRequest:          msgBadRequest,
			http.StatusNotFound:            msgOrderNotFound,
			http.StatusInternalServerError: msgDeleteFailed,
		})
	}

	publish(ctx, TopicOrderDeleted, deleted)
	return ctx.JSON(http.StatusOK, MessageResponse{Message: msgOrderDeleted})
}
