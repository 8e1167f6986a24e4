package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sing3demons/go-order-admin/pkg/kafka"
	"github.com/sing3demons/go-order-admin/pkg/logger"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

func newCtx() *router.Context {
	log := logger.NewMockLogger()
	return router.NewContext(nil, kafka.NewMessage(context.Background()), nil, router.NewLogService(log, log, log), nil)
}

func boolPtr(b bool) *bool { return &b }

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	b, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(b, &d))
	return d
}
