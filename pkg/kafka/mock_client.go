package kafka

import (
	"context"
	"sync"
)

// MockClient is an in-process KafkaClient. Published records are kept in order and
// Subscribe hands out whatever was queued with Enqueue.
type MockClient struct {
	mu        sync.Mutex
	Published []Message
	Topics    []string
	queue     map[string][]*Message
	PublishFn func(topic string, message []byte) error
}

func NewMockClient() *MockClient {
	return &MockClient{queue: map[string][]*Message{}}
}

func (m *MockClient) Publish(_ context.Context, topic string, message []byte) error {
	if m.PublishFn != nil {
		if err := m.PublishFn(topic, message); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, Message{Topic: topic, Value: message})
	return nil
}

func (m *MockClient) Enqueue(msg *Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue[msg.Topic] = append(m.queue[msg.Topic], msg)
}

func (m *MockClient) Subscribe(ctx context.Context, topic string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := m.queue[topic]
	if len(q) == 0 {
		return nil, nil
	}
	m.queue[topic] = q[1:]
	return q[0], nil
}

// Messages returns the records published to topic.
func (m *MockClient) Messages(topic string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.Published {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

func (m *MockClient) CreateTopic(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Topics = append(m.Topics, name)
	return nil
}

func (m *MockClient) Close() error {
	return nil
}
