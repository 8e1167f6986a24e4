package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/sync/errgroup"

	config "github.com/sing3demons/go-order-admin/configs"
	commonlog "github.com/sing3demons/go-order-admin/pkg/common-log"
	httpService "github.com/sing3demons/go-order-admin/pkg/http"
	kafkaService "github.com/sing3demons/go-order-admin/pkg/kafka"
	"github.com/sing3demons/go-order-admin/pkg/metrics"
)

type App struct {
	SubscriptionManager
	httpServer    *httpService.Router
	traceProvider *trace.TracerProvider
	metrics       *metrics.ServerMetrics
	Logger        commonlog.LoggerService
	DetailLog     commonlog.LoggerService
	SummaryLog    commonlog.LoggerService
	conf          *config.Config
}

type IApplication interface {
	Get(pattern string, handler Handler, mws ...httpService.Middleware)
	Put(pattern string, handler Handler, mws ...httpService.Middleware)
	Post(pattern string, handler Handler, mws ...httpService.Middleware)
	Delete(pattern string, handler Handler, mws ...httpService.Middleware)
	Patch(pattern string, handler Handler, mws ...httpService.Middleware)
	Consumer(topic string, handler SubscribeFunc)
	CreateTopic(topic string)
	AdminOnly() httpService.Middleware
	Handler() http.Handler
	Routes() []string
	Start()

	StartKafka()
	UseKafka(client kafkaService.KafkaClient)

	LogDetail(logger commonlog.LoggerService)
	LogSummary(logger commonlog.LoggerService)
}

func NewApplication(conf *config.Config, logger commonlog.LoggerService) IApplication {
	var traceProvider *trace.TracerProvider
	if conf.TracerHost != "" {
		tp, err := startTracing(conf.App.Name, conf.TracerHost)
		if err != nil {
			logger.Errorf("failed to start tracing: %v", err)
		} else {
			traceProvider = tp
		}
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	app := &App{
		Logger:        logger,
		DetailLog:     logger,
		SummaryLog:    logger,
		conf:          conf,
		traceProvider: traceProvider,
		metrics:       metrics.NewServerMetrics(conf.App.ComponentName),
	}
	app.SubscriptionManager = newSubscriptionManager(nil, app.logService(), conf)

	app.httpServer = httpService.NewRouter(app.metrics)
	app.httpServer.UseMiddleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	app.Get("/liveness", liveHandler)
	app.httpServer.Router.Handle("/metrics", app.metrics.Handler()).Methods(http.MethodGet)

	return app
}

func (a *App) logService() LogService {
	return NewLogService(a.Logger, a.DetailLog, a.SummaryLog)
}

// StartKafka connects to the configured broker. Without a broker the app runs
// without publishing or consuming.
func (a *App) StartKafka() {
	if a.conf.Kafka.Broker == "" {
		a.Logger.Log("kafka broker is not configured, events are disabled")
		return
	}

	client := kafkaService.New(&a.conf.Kafka, a.Logger)
	if client == nil {
		a.Logger.Error("kafka client could not be created")
		return
	}
	a.UseKafka(client)
	a.Logger.Log("kafka client initialized successfully")
}

func (a *App) UseKafka(client kafkaService.KafkaClient) {
	subscriptions := a.SubscriptionManager.subscriptions
	a.SubscriptionManager = newSubscriptionManager(client, a.logService(), a.conf)
	for topic, h := range subscriptions {
		a.SubscriptionManager.subscriptions[topic] = h
	}
}

func (a *App) LogDetail(logger commonlog.LoggerService) {
	a.DetailLog = logger
	a.SubscriptionManager.Logger = a.logService()
}

func (a *App) LogSummary(logger commonlog.LoggerService) {
	a.SummaryLog = logger
	a.SubscriptionManager.Logger = a.logService()
}

// AdminOnly guards a route with the admin bearer token check. It is a no-op when
// no admin secret is configured.
func (a *App) AdminOnly() httpService.Middleware {
	return RequireRole(a.conf.Auth.AdminJWTSecret, RoleAdmin)
}

func (a *App) Handler() http.Handler {
	return a.httpServer
}

func (a *App) Routes() []string {
	return append([]string(nil), *a.httpServer.RegisteredRoutes...)
}

func (a *App) add(method, pattern string, h Handler, mws ...httpService.Middleware) {
	a.httpServer.Add(method, pattern, handler{
		function:       h,
		requestTimeout: a.conf.Server.RequestTimeout,
		app:            a,
	}, mws...)
}

func startTracing(appName, endpoint string) (*trace.TracerProvider, error) {
	headers := map[string]string{
		"content-type": "application/json",
	}

	exporter, err := otlptrace.New(
		context.Background(),
		otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithHeaders(headers),
			otlptracehttp.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating new exporter: %w", err)
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(
			exporter,
			trace.WithMaxExportBatchSize(trace.DefaultMaxExportBatchSize),
			trace.WithBatchTimeout(trace.DefaultScheduleDelay*time.Millisecond),
		),
		trace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName(appName),
			),
		),
	)

	otel.SetTracerProvider(tracerProvider)

	return tracerProvider, nil
}

func (a *App) Get(pattern string, handler Handler, mws ...httpService.Middleware) {
	a.add(http.MethodGet, pattern, handler, mws...)
}

func (a *App) Put(pattern string, handler Handler, mws ...httpService.Middleware) {
	a.add(http.MethodPut, pattern, handler, mws...)
}

func (a *App) Post(pattern string, handler Handler, mws ...httpService.Middleware) {
	a.add(http.MethodPost, pattern, handler, mws...)
}

func (a *App) Delete(pattern string, handler Handler, mws ...httpService.Middleware) {
	a.add(http.MethodDelete, pattern, handler, mws...)
}

func (a *App) Patch(pattern string, handler Handler, mws ...httpService.Middleware) {
	a.add(http.MethodPatch, pattern, handler, mws...)
}

func (a *App) CreateTopic(topic string) {
	if a.KafkaClient == nil {
		return
	}
	if err := a.KafkaClient.CreateTopic(topic); err != nil {
		a.Logger.Errorf("failed to create topic %s: %v", topic, err)
	}
}

func (a *App) Consumer(topic string, handler SubscribeFunc) {
	if topic == "" || handler == nil {
		a.Logger.Error("invalid subscription: topic and handler must not be empty or nil")
		return
	}

	if a.KafkaClient == nil {
		a.Logger.Logf("kafka is not configured, skipping consumer for topic %s", topic)
		return
	}

	if a.conf.Kafka.AutoCreateTopic {
		if err := a.KafkaClient.CreateTopic(topic); err != nil {
			a.Logger.Errorf("failed to create topic %s: %v", topic, err)
			return
		}
	}

	a.SubscriptionManager.subscriptions[topic] = handler
}

func (a *App) startSubscriptions(ctx context.Context) error {
	if len(a.SubscriptionManager.subscriptions) == 0 {
		return nil
	}

	group, gctx := errgroup.WithContext(ctx)
	for topic, handler := range a.SubscriptionManager.subscriptions {
		subscriberTopic, subscriberHandler := topic, handler

		group.Go(func() error {
			return a.SubscriptionManager.startSubscriber(gctx, subscriberTopic, subscriberHandler)
		})
	}

	return group.Wait()
}

// Start serves HTTP and runs the subscriptions until SIGINT or SIGTERM.
func (a *App) Start() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &http.Server{
		Addr:           ":" + a.conf.Server.AppPort,
		Handler:        a.httpServer,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   a.conf.Server.RequestTimeout + 5*time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		a.Logger.Log("starting application on port: " + a.conf.Server.AppPort)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Errorf("listen: %v", err)
			stop()
		}
	}()

	go func() {
		if err := a.startSubscriptions(ctx); err != nil {
			a.Logger.Errorf("subscription error: %v", err)
		}
	}()

	<-ctx.Done()
	a.Logger.Log("shutting down gracefully, press Ctrl+C again to force")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(timeoutCtx); err != nil {
		a.Logger.Errorf("server shutdown error: %v", err)
	}

	if a.KafkaClient != nil {
		if err := a.KafkaClient.Close(); err != nil {
			a.Logger.Errorf("kafka close: %v", err)
		}
	}

	if a.traceProvider != nil {
		if err := a.traceProvider.Shutdown(timeoutCtx); err != nil {
			a.Logger.Errorf("traceprovider: %v", err)
		}
	}
}
