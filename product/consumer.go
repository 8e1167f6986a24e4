package product

import (
	"encoding/json"
	"fmt"
	"net/http"

	commonlog "github.com/sing3demons/go-order-admin/pkg/common-log"
	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

type Consumer interface {
	ProductCreated(c *router.Context) error
}

type consumer struct {
	store ProductStore
}

func NewConsumer(store ProductStore) Consumer {
	return &consumer{store: store}
}

// ProductCreated stores the product carried by a product_created event. A
// product already present with the same id is replaced. Malformed messages are
// logged and committed. A store failure is returned, so the offset is not
// committed: the reader keeps going and the message is read again only after a
// restart or a group rebalance.
func (h *consumer) ProductCreated(c *router.Context) error {
	topic := c.Param("topic")
	tag := commonlog.NewEventTag("consuming", topic)

	var req router.KafkaPayload
	if err := c.Bind(&req); err != nil {
		c.Log.SetSummary(tag.Update("400", err.Error())).Error(logAction.CONSUMING(topic), err.Error())
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid message", Error: err.Error()})
	}
	c.Log.SetSummary(tag).Info(logAction.CONSUMING(topic), req)

	raw, err := json.Marshal(req.Body)
	if err != nil {
		c.Log.Error(logAction.APP_LOGIC("convert body to bytes"), err.Error())
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid message", Error: err.Error()})
	}
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil || p.ID.IsZero() {
		if err == nil {
			err = ErrInvalidID
		}
		c.Log.Error(logAction.APP_LOGIC("convert bytes to product"), err.Error())
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid message", Error: err.Error()})
	}

	if err := h.store.Upsert(c, &p); err != nil {
		c.Log.End(http.StatusInternalServerError, err.Error())
		return fmt.Errorf("store %s product: %w", topic, err)
	}

	return c.JSON(http.StatusOK, nil)
}
