package listener

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/fekuna/omnipos-sales-service/pkg/broker"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	orderCreated = "OrderCreated"
	sourceOnline = "online"
)

// OrderListener turns orders placed on the online channel into sales.
type OrderListener struct {
	consumer *broker.KafkaConsumer
	uc       sale.UseCase
	logger   logger.ZapLogger
}

func NewOrderListener(consumer *broker.KafkaConsumer, uc sale.UseCase, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping order Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.handle(ctx, msg.Value)
		}
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID         string             `json:"id"`
	PaidAmount decimal.Decimal    `json:"paid_amount"`
	Items      []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string          `json:"product_id"`
	Quantity  float64         `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// handle processes one message and reports whether a sale was recorded.
// Redelivered orders are absorbed by the order id idempotency key.
func (l *OrderListener) handle(ctx context.Context, value []byte) bool {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return false
	}
	if event.EventType != orderCreated {
		return false
	}

	orderID := strings.TrimSpace(event.Payload.ID)
	if orderID == "" {
		// without an id the order cannot be deduplicated
		l.logger.Warn("Skipping OrderCreated event without order id", zap.Int("items", len(event.Payload.Items)))
		return false
	}

	l.logger.Info("Processing OrderCreated event", zap.String("order_id", orderID))

	input := &dto.ProcessSaleInput{
		Items:          make([]dto.SaleItemInput, len(event.Payload.Items)),
		PaidAmount:     event.Payload.PaidAmount,
		IdempotencyKey: "order:" + orderID,
		Source:         sourceOnline,
	}
	for i, item := range event.Payload.Items {
		input.Items[i] = dto.SaleItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	s, err := l.uc.ProcessSale(ctx, input)
	if err != nil {
		l.logger.Error("Failed to record sale for order",
			zap.String("order_id", orderID),
			zap.Int("items", len(input.Items)),
			zap.Error(err),
		)
		return false
	}

	l.logger.Info("Order recorded as sale",
		zap.String("order_id", orderID),
		zap.String("sale_id", s.ID),
	)
	return true
}
