// Package jobfake provides in-memory stand-ins for the object store and the
// message bus used by evaluation jobs.
package jobfake

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/turtacn/chemtemplates/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// PayloadStore keeps job documents as JSON in memory. Keys follow the
// layout of the MinIO store.
type PayloadStore struct {
	mu   sync.Mutex
	docs map[string][]byte

	PutErr  error
	LoadErr error
}

func NewPayloadStore() *PayloadStore { return &PayloadStore{docs: map[string][]byte{}} }

func (m *PayloadStore) put(key string, v interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return "", m.PutErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	m.docs[key] = data
	return key, nil
}

func (m *PayloadStore) PutRequest(_ context.Context, jobID string, v interface{}) (string, error) {
	return m.put("requests/"+jobID+".json", v)
}

func (m *PayloadStore) PutResult(_ context.Context, jobID string, v interface{}) (string, error) {
	return m.put("results/"+jobID+".json", v)
}

func (m *PayloadStore) Load(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return m.LoadErr
	}
	data, ok := m.docs[key]
	if !ok {
		return errors.NotFound("object not found")
	}
	return json.Unmarshal(data, dest)
}

func (m *PayloadStore) URL(_ context.Context, key string) (string, error) {
	return "http://minio/jobs/" + key + "?sig=x", nil
}

// Len is the number of stored documents.
func (m *PayloadStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Event is one published envelope.
type Event struct {
	Topic string
	Key   string
	Env   *kafka.EventEnvelope
}

// Publisher records published events. Events on a subscribed topic are
// delivered to the handler on a separate goroutine, the way a broker would.
type Publisher struct {
	mu       sync.Mutex
	events   []Event
	handlers map[string]kafka.MessageHandler
	wg       sync.WaitGroup

	Err error
}

func NewPublisher() *Publisher { return &Publisher{handlers: map[string]kafka.MessageHandler{}} }

// Subscribe routes events published on topic to handler.
func (p *Publisher) Subscribe(topic string, handler kafka.MessageHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[topic] = handler
}

func (p *Publisher) PublishEvent(ctx context.Context, topic, key string, env *kafka.EventEnvelope) error {
	p.mu.Lock()
	if p.Err != nil {
		p.mu.Unlock()
		return p.Err
	}
	p.events = append(p.events, Event{Topic: topic, Key: key, Env: env})
	handler := p.handlers[topic]
	p.mu.Unlock()

	if handler == nil {
		return nil
	}
	out, err := env.ToMessage(topic)
	if err != nil {
		return err
	}
	msg := &kafka.Message{Topic: topic, Key: []byte(key), Value: out.Value, Headers: out.Headers, Timestamp: out.Timestamp}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = handler(context.WithoutCancel(ctx), msg)
	}()
	return nil
}

// Events returns a copy of everything published so far.
func (p *Publisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Wait blocks until every delivered event has been handled.
func (p *Publisher) Wait() { p.wg.Wait() }

//Personal.AI order the ending
