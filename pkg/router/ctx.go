package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	config "github.com/sing3demons/go-order-admin/configs"
	commonlog "github.com/sing3demons/go-order-admin/pkg/common-log"
	"github.com/sing3demons/go-order-admin/pkg/common-log/logAction"
	"github.com/sing3demons/go-order-admin/pkg/common-log/masking"
	kafkaService "github.com/sing3demons/go-order-admin/pkg/kafka"
)

// Context is what every HTTP handler and Kafka subscription receives. It carries
// the request-scoped context, the inbound request (or message), the transaction
// logger and the Kafka client used by Publish.
type Context struct {
	context.Context
	Request
	http.ResponseWriter
	kafkaService.KafkaClient
	Logger commonlog.LoggerService
	Log    commonlog.CustomLoggerService
	conf   *config.Config
	masks  []masking.MaskingOptionDto
}

type Request interface {
	Context() context.Context
	Param(string) string
	PathParam(string) string
	Bind(any) error
	HostName() string
	Params(string) []string
	SessionId() string
	TransactionId() string
	RequestId() string
	Headers() map[string]any
	Method() string
	URL() string
}

func (c *Context) Bind(i any) error {
	return c.Request.Bind(i)
}

// LogService groups the three loggers a Context is built from.
type LogService struct {
	appLog     commonlog.LoggerService
	detailLog  commonlog.LoggerService
	summaryLog commonlog.LoggerService
}

func NewLogService(app, detail, summary commonlog.LoggerService) LogService {
	return LogService{appLog: app, detailLog: detail, summaryLog: summary}
}

// NewContext builds a Context for r. A nil w marks a Kafka message.
func NewContext(w http.ResponseWriter, r Request, k kafkaService.KafkaClient, logger LogService, conf *config.Config) *Context {
	if conf == nil {
		conf = config.NewConfig()
	}

	kpLog := commonlog.NewLogger(logger.detailLog, logger.summaryLog, commonlog.NewTimer())
	ctx := &Context{
		Context:        r.Context(),
		Request:        r,
		ResponseWriter: w,
		KafkaClient:    k,
		conf:           conf,
		Logger:         logger.appLog,
	}

	broker := "none"
	origin := "HTTP Service"
	if w == nil {
		broker = r.HostName()
		origin = "Event Source"
	}

	kpLog.Init(commonlog.LogDto{
		Channel:              "none",
		UseCase:              "none",
		UseCaseStep:          "none",
		Broker:               broker,
		TransactionId:        r.TransactionId(),
		SessionId:            r.SessionId(),
		RequestId:            r.RequestId(),
		AppName:              conf.App.Name,
		ComponentVersion:     conf.App.Version,
		ComponentName:        conf.App.ComponentName,
		Instance:             conf.App.HostName,
		OriginateServiceName: origin,
		RecordType:           "detail",
	})

	ctx.Log = kpLog
	return ctx
}

type Header struct {
	Broker      string `json:"broker"`
	Channel     string `json:"channel"`
	UseCase     string `json:"useCase"`
	UseCaseStep string `json:"useCaseStep"`
	Identity    struct {
		Device any    `json:"device"`
		Public string `json:"public"`
		User   string `json:"user"`
	} `json:"identity"`
	Session     string `json:"session"`
	Transaction string `json:"transaction"`
}

// KafkaPayload is the envelope of every published event.
type KafkaPayload struct {
	Header Header `json:"header"`
	Body   any    `json:"body"`
}

// Publish wraps message in a KafkaPayload and writes it to topic. It does nothing
// when no Kafka client is configured. The masking set with Mask applies to the
// logged message.
func (c *Context) Publish(topic string, message any) error {
	if c.KafkaClient == nil {
		return nil
	}
	start := time.Now()

	body := KafkaPayload{Body: message}
	body.Header.Broker = c.conf.Kafka.Broker
	body.Header.UseCase = topic
	body.Header.Session = c.Request.SessionId()
	body.Header.Transaction = c.Request.TransactionId()
	body.Header.Channel = topic
	body.Header.UseCaseStep = "publish"
	body.Header.Identity.Device = c.Request.HostName()
	body.Header.Identity.User = c.Request.HostName()

	masks := make([]masking.MaskingOptionDto, len(c.masks))
	for i, m := range c.masks {
		m.MaskingField = "body.value.body." + m.MaskingField
		masks[i] = m
	}
	c.Log.Info(logAction.PRODUCING(topic), map[string]any{
		"body": map[string]any{
			"topic": topic,
			"value": body,
		}}, masks...)

	msg, err := json.Marshal(body)
	if err != nil {
		c.Logger.Errorf("failed to marshal message: %v", err)
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	code, description := "200", "success"
	err = c.KafkaClient.Publish(c.Context, topic, msg)
	if err != nil {
		code, description = "500", err.Error()
		c.Logger.Errorf("failed to publish message to topic %s: %v", topic, err)
	}

	c.Log.SetSummary(commonlog.LogEventTag{
		Node:        "kafka",
		Command:     topic,
		Code:        code,
		Description: description,
		ResTime:     time.Since(start).Microseconds(),
	}).Info(logAction.PRODUCED(topic), description)

	return err
}

// Mask sets the masking applied to the response body when it is logged.
func (c *Context) Mask(options ...masking.MaskingOptionDto) *Context {
	c.masks = options
	return c
}

// JSON writes v with the given status and closes the transaction log.
func (c *Context) JSON(code int, v any) error {
	if c.ResponseWriter != nil {
		c.ResponseWriter.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.ResponseWriter.WriteHeader(code)

		if err := json.NewEncoder(c.ResponseWriter).Encode(v); err != nil {
			c.Log.Error(logAction.OUTBOUND("client"), err.Error())
			c.Log.End(code, err.Error())
			return err
		}
		c.Log.Info(logAction.OUTBOUND("client", http.StatusText(code)), v, c.masks...)
	}

	c.Log.End(code, "")
	return nil
}

type SubscribeFunc func(c *Context) error

type SubscriptionManager struct {
	kafkaService.KafkaClient
	subscriptions map[string]SubscribeFunc
	Logger        LogService
	conf          *config.Config
}

func newSubscriptionManager(kafkaSvc kafkaService.KafkaClient, logger LogService, conf *config.Config) SubscriptionManager {
	return SubscriptionManager{
		KafkaClient:   kafkaSvc,
		subscriptions: make(map[string]SubscribeFunc),
		Logger:        logger,
		conf:          conf,
	}
}

// startSubscriber reads topic until ctx is cancelled.
func (s *SubscriptionManager) startSubscriber(ctx context.Context, topic string, handler SubscribeFunc) error {
	for {
		select {
		case <-ctx.Done():
			s.Logger.appLog.Logf("shutting down subscriber for topic %s", topic)
			return nil
		default:
			if err := s.handleSubscription(ctx, topic, handler); err != nil {
				s.Logger.appLog.Errorf("error in subscription for topic %s: %v", topic, err)
			}
		}
	}
}

func (s *SubscriptionManager) handleSubscription(ctx context.Context, topic string, handler SubscribeFunc) error {
	msg, err := s.KafkaClient.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	if msg == nil {
		return nil
	}

	return s.dispatch(msg, handler)
}

// dispatch runs handler for one message and commits it when the handler succeeds.
func (s *SubscriptionManager) dispatch(msg *kafkaService.Message, handler SubscribeFunc) error {
	msgCtx := NewContext(nil, msg, s.KafkaClient, s.Logger, s.conf)

	err := func(c *Context) (err error) {
		defer func() {
			if re := recover(); re != nil {
				panicRecovery(re, c.Logger)
				err = fmt.Errorf("panic in handler for topic %s", msg.Topic)
			}
		}()

		return handler(c)
	}(msgCtx)

	if err != nil {
		s.Logger.appLog.Errorf("error in handler for topic %s: %v", msg.Topic, err)
		return nil
	}

	if msg.Committer != nil {
		msg.Commit()
	}

	return nil
}

type panicLog struct {
	Error      string `json:"error,omitempty"`
	StackTrace string `json:"stack_trace,omitempty"`
}

func panicRecovery(re any, log commonlog.LoggerService) {
	if re == nil {
		return
	}

	var e string
	switch t := re.(type) {
	case string:
		e = t
	case error:
		e = t.Error()
	default:
		e = "Unknown panic type"
	}

	b, _ := json.Marshal(panicLog{
		Error:      e,
		StackTrace: string(debug.Stack()),
	})
	if log != nil {
		log.Error(string(b))
	}
}
