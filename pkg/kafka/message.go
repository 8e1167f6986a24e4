package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

var errNotPointer = errors.New("input should be a pointer to a variable")

type ctxKey string

const (
	sessionKey     ctxKey = "x-session-id"
	transactionKey ctxKey = "x-transaction-id"
	requestKey     ctxKey = "x-request-id"
)

// Message is a consumed record. It satisfies the router's Request interface so a
// subscription handler reads it the same way an HTTP handler reads a request.
type Message struct {
	ctx context.Context

	Topic    string
	Value    []byte
	Header   map[string]string
	MetaData any

	Committer
}

func NewMessage(ctx context.Context) *Message {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Message{ctx: ctx, Header: map[string]string{}}
}

func (m *Message) Context() context.Context {
	return m.ctx
}

func (m *Message) Param(p string) string {
	if p == "topic" {
		return m.Topic
	}

	return m.Header[p]
}

func (m *Message) PathParam(p string) string {
	return m.Param(p)
}

func (m *Message) Params(string) []string {
	return nil
}

func (m *Message) HostName() string {
	return m.Header["host"]
}

func (m *Message) Method() string {
	return "CONSUME"
}

func (m *Message) URL() string {
	return m.Topic
}

func (m *Message) Headers() map[string]any {
	h := make(map[string]any, len(m.Header))
	for k, v := range m.Header {
		h[k] = v
	}
	return h
}

func (m *Message) SessionId() string {
	return m.idFromContext(sessionKey)
}

func (m *Message) TransactionId() string {
	return m.idFromContext(transactionKey)
}

func (m *Message) RequestId() string {
	return m.idFromContext(requestKey)
}

// idFromContext prefers the id carried in the record headers, then the one already
// stored in the context, and generates a new one otherwise.
func (m *Message) idFromContext(key ctxKey) string {
	if v := m.Header[string(key)]; v != "" {
		return v
	}
	if v, ok := m.ctx.Value(key).(string); ok && v != "" {
		return v
	}
	id := uuid.NewString()
	m.ctx = context.WithValue(m.ctx, key, id)
	return id
}

// Bind binds the message value to the input variable. The input should be a pointer to a variable.
func (m *Message) Bind(i any) error {
	if reflect.ValueOf(i).Kind() != reflect.Ptr {
		return errNotPointer
	}

	switch v := i.(type) {
	case *string:
		*v = string(m.Value)
		return nil
	case *float64:
		f, err := strconv.ParseFloat(string(m.Value), 64)
		if err != nil {
			return err
		}
		*v = f
		return nil
	case *int:
		n, err := strconv.Atoi(string(m.Value))
		if err != nil {
			return err
		}
		*v = n
		return nil
	case *bool:
		b, err := strconv.ParseBool(string(m.Value))
		if err != nil {
			return err
		}
		*v = b
		return nil
	default:
		return json.Unmarshal(m.Value, i)
	}
}

type kafkaMessage struct {
	msg    *kafka.Message
	reader Reader
	logger Logger
}

func newKafkaMessage(msg *kafka.Message, reader Reader, logger Logger) *kafkaMessage {
	return &kafkaMessage{
		msg:    msg,
		reader: reader,
		logger: logger,
	}
}

func (kmsg *kafkaMessage) Commit() {
	if kmsg.reader != nil {
		err := kmsg.reader.CommitMessages(context.Background(), *kmsg.msg)
		if err != nil {
			kmsg.logger.Errorf("unable to commit message on kafka topic %s: %v", kmsg.msg.Topic, err)
		}
	}
}
