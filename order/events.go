package order

import (
	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

const (
	TopicOrderCreated = "order_created"
	TopicOrderUpdated = "order_updated"
	TopicOrderDeleted = "order_deleted"
)

// Topics lists every topic the order handlers publish to.
var Topics = []string{TopicOrderCreated, TopicOrderUpdated, TopicOrderDeleted}

// publish sends o on topic. A failed publish is logged and never fails the request.
func publish(ctx *router.Context, topic string, o *Order) {
	if err := ctx.Mask(maskOptions...).Publish(topic, o); err != nil {
		ctx.Log.Error(logAction.PRODUCING(topic), err.Error())
	}
}
