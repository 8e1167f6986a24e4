package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/sing3demons/go-order-admin/configs"
	"github.com/sing3demons/go-order-admin/pkg/kafka"
	"github.com/sing3demons/go-order-admin/pkg/logger"
	"github.com/sing3demons/go-order-admin/pkg/router"
)

func newApp(t *testing.T, mutate func(*config.Config)) (router.IApplication, *logger.MockLogger) {
	t.Helper()
	conf := config.NewConfig()
	conf.Server.RequestTimeout = 200 * time.Millisecond
	if mutate != nil {
		mutate(conf)
	}
	log := logger.NewMockLogger()
	app := router.NewApplication(conf, log)
	app.LogDetail(log)
	app.LogSummary(log)
	return app, log
}

func serve(app router.IApplication, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLiveness(t *testing.T) {
	app, _ := newApp(t, nil)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/liveness", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newApp(t, nil)
	serve(app, httptest.NewRequest(http.MethodGet, "/liveness", nil))

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/liveness"`)
}

func TestHandlerWritesSummaryLog(t *testing.T) {
	app, log := newApp(t, nil)
	app.Get("/things/{id}", func(c *router.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"id": c.PathParam("id")})
	})

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/things/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
	assert.True(t, log.Called("Info"), "summary record expected")
	assert.Contains(t, app.Routes(), "GET /things/{id}")
}

func TestHandlerTimeout(t *testing.T) {
	app, _ := newApp(t, nil)
	release := make(chan struct{})
	defer close(release)
	app.Get("/slow", func(c *router.Context) error {
		<-release
		return c.JSON(http.StatusOK, "late")
	})

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "request timed out")
}

func TestHandlerPanicRecovery(t *testing.T) {
	app, log := newApp(t, nil)
	app.Get("/boom", func(c *router.Context) error {
		panic("boom")
	})

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, log.Called("Error"))
}

func TestHandlerErrorWithoutResponse(t *testing.T) {
	app, _ := newApp(t, nil)
	app.Get("/fail", func(c *router.Context) error {
		return errors.New("store unavailable")
	})

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "store unavailable")
}

func TestAdminOnly(t *testing.T) {
	const secret = "s3cret"
	app, _ := newApp(t, func(c *config.Config) { c.Auth.AdminJWTSecret = secret })
	app.Get("/admin", func(c *router.Context) error {
		return c.JSON(http.StatusOK, "ok")
	}, app.AdminOnly())

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userToken, err := router.SignToken(secret, "u1", "customer", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	assert.Equal(t, http.StatusUnauthorized, serve(app, req).Code)

	wrongKey, err := router.SignToken("other", "a1", router.RoleAdmin, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+wrongKey)
	assert.Equal(t, http.StatusUnauthorized, serve(app, req).Code)

	adminToken, err := router.SignToken(secret, "a1", router.RoleAdmin, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, serve(app, req).Code)
}

func TestAdminOnlyOpenWithoutSecret(t *testing.T) {
	app, _ := newApp(t, nil)
	app.Get("/admin", func(c *router.Context) error {
		return c.JSON(http.StatusOK, "ok")
	}, app.AdminOnly())

	assert.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
}

func TestPublish(t *testing.T) {
	app, _ := newApp(t, func(c *config.Config) { c.Kafka.Broker = "localhost:9092" })
	client := kafka.NewMockClient()
	app.UseKafka(client)
	app.Post("/events", func(c *router.Context) error {
		if err := c.Publish("order_created", map[string]string{"id": "1"}); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set("X-Session-Id", "s-1")
	rec := serve(app, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	msgs := client.Messages("order_created")
	require.Len(t, msgs, 1)
	var payload router.KafkaPayload
	require.NoError(t, json.Unmarshal(msgs[0].Value, &payload))
	assert.Equal(t, "s-1", payload.Header.Session)
	assert.Equal(t, "localhost:9092", payload.Header.Broker)
	assert.Equal(t, map[string]any{"id": "1"}, payload.Body)
}

func TestPublishWithoutKafkaIsNoop(t *testing.T) {
	log := logger.NewMockLogger()
	c := router.NewContext(nil, kafka.NewMessage(context.Background()), nil, router.NewLogService(log, log, log), nil)

	assert.NoError(t, c.Publish("order_created", "x"))
}

func TestNewContextForMessage(t *testing.T) {
	log := logger.NewMockLogger()
	msg := kafka.NewMessage(context.Background())
	msg.Topic = "product_created"
	msg.Header["x-session-id"] = "s-9"

	c := router.NewContext(nil, msg, nil, router.NewLogService(log, log, log), config.NewConfig())

	assert.Equal(t, "s-9", c.Log.GetLogDto().SessionId)
	assert.Equal(t, "Event Source", c.Log.GetLogDto().OriginateServiceName)
	assert.NoError(t, c.JSON(http.StatusOK, nil))
}
