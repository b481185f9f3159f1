package notify

import (
	"context"
	"net/url"
	"strings"
	"time"

	"delivery-service/internal/models"
	"delivery-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome reports what a sink did with a message. Delivery is never
// confirmed; Sent only means the hand-off happened.
type Outcome struct {
	Destination string `json:"destination,omitempty"`
	URL         string `json:"url,omitempty"`
	Sent        bool   `json:"sent"`
	Reason      string `json:"reason,omitempty"`
}

// Sink hands a message to some outbound channel
type Sink interface {
	Send(ctx context.Context, destination, message string) Outcome
}

// DeepLink builds the messaging-app link for a normalized phone number
func DeepLink(host, phone, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://" + host + "/" + phone + "?text=" + text
}

// Opener opens a link in whatever context the host environment provides
type Opener interface {
	Open(ctx context.Context, link string) error
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context, link string) error

// Open implements Opener
func (f OpenerFunc) Open(ctx context.Context, link string) error { return f(ctx, link) }

// LogOpener records the link. The admin client receives the same link in the
// API response and opens it itself.
type LogOpener struct{}

// Open implements Opener
func (LogOpener) Open(_ context.Context, link string) error {
	util.GetLogger().Info("Opening messaging link", zap.String("url", link))
	return nil
}

// LinkSink turns a message into a deep link and opens it, fire-and-forget
type LinkSink struct {
	host   string
	opener Opener
}

// NewLinkSink creates a sink for the given messaging host, e.g. wa.me
func NewLinkSink(host string, opener Opener) *LinkSink {
	if opener == nil {
		opener = LogOpener{}
	}
	return &LinkSink{host: host, opener: opener}
}

// Send implements Sink
func (s *LinkSink) Send(ctx context.Context, destination, message string) Outcome {
	link := DeepLink(s.host, destination, message)
	if err := s.opener.Open(ctx, link); err != nil {
		return Outcome{Destination: destination, URL: link, Reason: err.Error()}
	}
	return Outcome{Destination: destination, URL: link, Sent: true}
}

// MessagePublisher queues outbound messages
type MessagePublisher interface {
	PublishOutboundMessage(ctx context.Context, msg *models.OutboundMessage) error
}

// QueueSink publishes messages for the outbound worker instead of opening
// links inline
type QueueSink struct {
	host      string
	publisher MessagePublisher
}

// NewQueueSink creates a sink backed by the outbound message queue
func NewQueueSink(host string, publisher MessagePublisher) *QueueSink {
	return &QueueSink{host: host, publisher: publisher}
}

// Send implements Sink
func (s *QueueSink) Send(ctx context.Context, destination, message string) Outcome {
	msg := &models.OutboundMessage{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOutboundMessage,
			Timestamp: time.Now(),
		},
		Destination: destination,
		Text:        message,
	}

	link := DeepLink(s.host, destination, message)
	if err := s.publisher.PublishOutboundMessage(ctx, msg); err != nil {
		return Outcome{Destination: destination, URL: link, Reason: err.Error()}
	}
	return Outcome{Destination: destination, URL: link, Sent: true}
}
