package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

const eventOrderStatusChanged = "OrderStatusChanged"

// Reader is the part of *kafka.Reader the listener uses.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Refresher is told to reload when an order changes. *allocation.Dashboard
// implements it.
type Refresher interface {
	RequestRefresh()
}

type OrderStatusChangedEvent struct {
	EventID   string            `json:"eventId"`
	EventType string            `json:"eventType"`
	OrderID   string            `json:"orderId"`
	DealerID  string            `json:"dealerId"`
	OldStatus model.OrderStatus `json:"oldStatus"`
	NewStatus model.OrderStatus `json:"newStatus"`
	Timestamp time.Time         `json:"timestamp"`
}

type OrderListener struct {
	reader   Reader
	target   Refresher
	dealerID string
	logger   logger.ZapLogger
	backoff  time.Duration
}

// NewOrderListener consumes order events and asks target to refresh. When
// dealerID is set, events for other dealers are ignored.
func NewOrderListener(reader Reader, target Refresher, dealerID string, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		reader:   reader,
		target:   target,
		dealerID: dealerID,
		logger:   logger,
		backoff:  time.Second,
	}
}

// NewKafkaReader builds a consumer-group reader for the order events topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order event listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping order event listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(msg.Value)
		}
	}
}

func (l *OrderListener) processMessage(value []byte) {
	var event OrderStatusChangedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != eventOrderStatusChanged {
		return
	}
	if l.dealerID != "" && event.DealerID != l.dealerID {
		return
	}

	l.logger.Info("Processing OrderStatusChanged event",
		zap.String("order_id", event.OrderID),
		zap.String("new_status", string(event.NewStatus)),
	)
	l.target.RequestRefresh()
}
