package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/messaging"
)

const defaultCapacity = 32

// Notifier is the channel user actions report their outcome on. Notify never
// fails the action that produced the notification.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n model.Notification)

func (f NotifierFunc) Notify(ctx context.Context, n model.Notification) { f(ctx, n) }

// Nop drops everything.
var Nop Notifier = NotifierFunc(func(context.Context, model.Notification) {})

func Success(message string) model.Notification {
	return model.Notification{Kind: model.NotificationSuccess, Message: message}
}

func Error(message string) model.Notification {
	return model.Notification{Kind: model.NotificationError, Message: message}
}

func Info(message string) model.Notification {
	return model.Notification{Kind: model.NotificationInfo, Message: message}
}

// Recorder keeps the most recent notifications of one client until the client
// drains them.
type Recorder struct {
	mu       sync.Mutex
	items    []model.Notification
	capacity int
	now      func() time.Time
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{capacity: capacity, now: time.Now}
}

func (r *Recorder) Notify(ctx context.Context, n model.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == r.capacity {
		r.items = r.items[1:]
	}
	r.items = append(r.items, n)
}

// Drain returns pending notifications oldest first and forgets them.
func (r *Recorder) Drain() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	if out == nil {
		return []model.Notification{}
	}
	return out
}

// Last returns the newest pending notification without draining.
func (r *Recorder) Last() (model.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return model.Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Fanout delivers to every notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n model.Notification) {
	for _, notifier := range f {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

// WithClient stamps the client id on every notification before forwarding.
func WithClient(clientID string, next Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, n model.Notification) {
		n.ClientID = clientID
		next.Notify(ctx, n)
	})
}

// BrokerNotifier relays notifications to the message broker for out-of-process
// consumers such as the mail worker.
type BrokerNotifier struct {
	broker  messaging.Broker
	channel string
	logger  zerolog.Logger
}

func NewBrokerNotifier(broker messaging.Broker, channel string, logger zerolog.Logger) *BrokerNotifier {
	if channel == "" {
		channel = messaging.NotificationsChannel
	}
	return &BrokerNotifier{broker: broker, channel: channel, logger: logger}
}

func (b *BrokerNotifier) Notify(ctx context.Context, n model.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := b.broker.Publish(ctx, b.channel, n); err != nil {
		b.logger.Warn().Err(err).Str("kind", string(n.Kind)).Msg("failed to publish notification")
	}
}
