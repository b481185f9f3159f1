package worker

import (
	"context"
	"fmt"

	"delivery-service/internal/broker"
	"delivery-service/internal/models"
	"delivery-service/internal/notify"
	"delivery-service/internal/util"

	"go.uber.org/zap"
)

// MessageConsumer is the read side of a topic
type MessageConsumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// OutboundWorker delivers queued notifications through a sink
type OutboundWorker struct {
	consumer     MessageConsumer
	eventHandler *broker.EventHandler
	sink         notify.Sink
	logger       *zap.Logger
}

// NewOutboundWorker creates a new outbound message worker
func NewOutboundWorker(consumer MessageConsumer, sink notify.Sink) *OutboundWorker {
	w := &OutboundWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		sink:         sink,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnOutboundMessage(w.deliver)
	return w
}

// Start starts the worker
func (w *OutboundWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting outbound message worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OutboundWorker) Stop() error {
	w.logger.Info("Stopping outbound message worker")
	return w.consumer.Close()
}

func (w *OutboundWorker) deliver(ctx context.Context, msg *models.OutboundMessage) error {
	outcome := w.sink.Send(ctx, msg.Destination, msg.Text)
	if !outcome.Sent {
		util.NotificationsTotal.WithLabelValues("queued", "failed").Inc()
		return fmt.Errorf("deliver message %s: %s", msg.EventID, outcome.Reason)
	}
	util.NotificationsTotal.WithLabelValues("queued", "delivered").Inc()
	w.logger.Debug("Queued message delivered",
		zap.String("event_id", msg.EventID),
		zap.String("destination", msg.Destination))
	return nil
}
