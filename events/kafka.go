package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues events in memory and writes them from a single
// goroutine, keyed by order id so each order's events stay in one partition.
// When the queue is full the event is dropped and logged.
type KafkaPublisher struct {
	w        messageWriter
	producer string
	log      logrus.FieldLogger
	inbox    chan kafka.Message
	closeCh  chan struct{}
}

func NewKafkaPublisher(brokers []string, topic, producer string, buf int, log logrus.FieldLogger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafkaPublisher(w, producer, buf, log)
}

func newKafkaPublisher(w messageWriter, producer string, buf int, log logrus.FieldLogger) *KafkaPublisher {
	return &KafkaPublisher{
		w:        w,
		producer: producer,
		log:      log,
		inbox:    make(chan kafka.Message, buf),
		closeCh:  make(chan struct{}),
	}
}

// Start runs the write loop until Close is called.
func (p *KafkaPublisher) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				p.log.WithError(err).WithField("order_id", string(m.Key)).Error("publishing order event")
			}
		}
		if err := p.w.Close(); err != nil {
			p.log.WithError(err).Warn("closing kafka writer")
		}
	}()
}

func (p *KafkaPublisher) Publish(_ context.Context, ev Event) {
	ev.Producer = p.producer
	value, err := json.Marshal(ev)
	if err != nil {
		p.log.WithError(err).WithField("order_id", ev.OrderID).Error("encoding order event")
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
		},
	}
	select {
	case p.inbox <- msg:
	default:
		p.log.WithFields(logrus.Fields{"order_id": ev.OrderID, "event_type": ev.EventType}).Warn("event queue full, dropping event")
	}
}

// Close stops accepting events, flushes the queue and waits for the writer.
func (p *KafkaPublisher) Close() {
	close(p.inbox)
	<-p.closeCh
}
