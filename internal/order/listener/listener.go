package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/order"
	"github.com/fekuna/omnipos-capital-service/internal/order/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventOrderDelivered = "OrderDelivered"
	EventOrderCompleted = "OrderCompleted"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type OrderListener struct {
	consumer MessageReader
	uc       order.UseCase
	logger   logger.ZapLogger
}

func NewOrderListener(consumer MessageReader, uc order.UseCase, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting Order Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Order Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			if err := l.processMessage(ctx, msg.Value); err != nil {
				l.logger.Error("Failed to apply order event",
					zap.String("key", string(msg.Key)),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID string `json:"id"`
	// Order events from the POS carry merchant_id; vendor_id wins when both are set.
	VendorID   string             `json:"vendor_id"`
	MerchantID string             `json:"merchant_id"`
	Items      []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// processMessage ignores events it does not handle and orders that were
// already applied, so redelivery is harmless.
func (l *OrderListener) processMessage(ctx context.Context, value []byte) error {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return nil
	}

	if event.EventType != EventOrderDelivered && event.EventType != EventOrderCompleted {
		return nil
	}

	vendorID := event.Payload.VendorID
	if vendorID == "" {
		vendorID = event.Payload.MerchantID
	}

	l.logger.Info("Processing order event",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.Payload.ID),
		zap.String("vendor_id", vendorID),
	)

	input := &dto.DeliveredOrderInput{
		VendorID: vendorID,
		OrderID:  event.Payload.ID,
		Items:    make([]dto.OrderLine, 0, len(event.Payload.Items)),
	}
	for _, item := range event.Payload.Items {
		input.Items = append(input.Items, dto.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	_, err := l.uc.ApplyDeliveredOrder(auth.WithUser(ctx, auth.SystemUser), input)
	if errors.Is(err, apperr.ErrAlreadyApplied) {
		l.logger.Debug("Order already applied", zap.String("order_id", event.Payload.ID))
		return nil
	}
	return err
}
