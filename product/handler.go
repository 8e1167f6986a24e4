package product

import (
	"net/http"
	"time"

	commonlog "github.com/sing3demons/go-order-admin/pkg/common-log"
	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

const TopicProductCreated = "product_created"

type Handler interface {
	GetProduct(ctx *router.Context) error
	CreateProduct(ctx *router.Context) error
}

type handler struct {
	store ProductStore
}

func NewHandler(store ProductStore) Handler {
	return &handler{store: store}
}

func RegisterRoutes(app router.IApplication, h Handler) {
	app.Get("/api/products/{id}", h.GetProduct)
	app.Post("/api/products", h.CreateProduct)
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (h *handler) GetProduct(ctx *router.Context) error {
	summary := commonlog.NewEventTag("client", "get_product")
	id := ctx.PathParam("id")
	ctx.Log.SetSummary(summary).Info(logAction.INBOUND(summary.Command), map[string]any{
		"headers": ctx.Headers(),
		"id":      id,
	})

	p, err := h.store.GetByID(ctx, id)
	if err != nil {
		code := statusCode(err)
		message := "Server error"
		switch code {
		case http.StatusNotFound:
			message = "Product not found"
		case http.StatusBadRequest:
			message = "Bad request"
		}
		return ctx.JSON(code, errorResponse{Message: message, Error: err.Error()})
	}

	return ctx.JSON(http.StatusOK, p)
}

func (h *handler) CreateProduct(ctx *router.Context) error {
	summary := commonlog.NewEventTag("client", "create_product")

	var body CreateProductRequest
	if err := ctx.Bind(&body); err != nil {
		ctx.Log.SetSummary(summary.Update("400", err.Error())).Error(logAction.INBOUND(summary.Command), err.Error())
		return ctx.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body", Error: err.Error()})
	}
	ctx.Log.SetSummary(summary).Info(logAction.INBOUND(summary.Command), map[string]any{
		"headers": ctx.Headers(),
		"body":    body,
	})

	if err := body.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Message: "Bad request", Error: err.Error()})
	}

	p := body.NewProduct(time.Now().UTC().Truncate(time.Millisecond))
	if err := h.store.Create(ctx, &p); err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Message: "Server error", Error: err.Error()})
	}

	if err := ctx.Publish(TopicProductCreated, p); err != nil {
		ctx.Log.Error(logAction.PRODUCING(TopicProductCreated), err.Error())
	}

	return ctx.JSON(http.StatusCreated, p)
}
