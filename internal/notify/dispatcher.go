package notify

import (
	"context"

	"delivery-service/internal/util"

	"go.uber.org/zap"
)

// ReasonNoDestination marks a dispatch skipped for lack of a dialable number
const ReasonNoDestination = "no destination number"

// Dispatcher normalizes destinations and forwards messages to a Sink.
// Failures are logged and reported in the Outcome, never returned as errors.
type Dispatcher struct {
	sink   Sink
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher over sink
func NewDispatcher(sink Sink) *Dispatcher {
	return &Dispatcher{
		sink:   sink,
		logger: util.GetLogger(),
	}
}

// Dispatch sends message to rawPhone
func (d *Dispatcher) Dispatch(ctx context.Context, template Template, rawPhone, message string) Outcome {
	phone := NormalizePhone(rawPhone)
	if phone == "" {
		d.logger.Warn("Skipping notification without destination",
			zap.String("template", string(template)),
			zap.String("raw_phone", rawPhone))
		util.NotificationsTotal.WithLabelValues(string(template), "skipped").Inc()
		return Outcome{Reason: ReasonNoDestination}
	}

	outcome := d.sink.Send(ctx, phone, message)
	if !outcome.Sent {
		d.logger.Error("Notification dispatch failed",
			zap.String("template", string(template)),
			zap.String("destination", phone),
			zap.String("reason", outcome.Reason))
		util.NotificationsTotal.WithLabelValues(string(template), "failed").Inc()
		return outcome
	}

	d.logger.Info("Notification dispatched",
		zap.String("template", string(template)),
		zap.String("destination", phone))
	util.NotificationsTotal.WithLabelValues(string(template), "sent").Inc()
	return outcome
}
