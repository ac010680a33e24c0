package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"notification-hub/internal/domain"
	"notification-hub/internal/metrics"
	"notification-hub/internal/service/audience"
)

// PublishRequest describes a stored notification and the role its receiver
// held in the notification's company when it was created.
type PublishRequest struct {
	Notification *domain.Notification
	Role         domain.Role
	CompanyID    uuid.UUID
}

// Topics returns the topics a notification is pushed to: always the
// receiver's own topic, plus the managers topic when the receiver's role,
// the priority and the type make it eligible.
func Topics(req PublishRequest) []string {
	n := req.Notification
	topics := []string{UserTopic(n.ReceiverID)}
	if audience.EligibleForManagers(req.Role, n.Priority, n.Type) {
		topics = append(topics, TopicManagers)
	}
	return topics
}

// Broadcaster hands envelopes to the bus without blocking the caller. Each
// topic always lands on the same worker so per-topic order is kept.
type Broadcaster struct {
	bus     Bus
	queues  []chan Envelope
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewBroadcaster(bus Bus, workers, queueSize int, timeout time.Duration, logger *zap.Logger) *Broadcaster {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	b := &Broadcaster{
		bus:     bus,
		queues:  make([]chan Envelope, workers),
		timeout: timeout,
		logger:  logger,
	}
	for i := range b.queues {
		b.queues[i] = make(chan Envelope, queueSize)
		b.wg.Add(1)
		go b.worker(b.queues[i])
	}
	return b
}

// Publish never fails the caller. Envelopes that cannot be queued are
// dropped and logged.
func (b *Broadcaster) Publish(req PublishRequest) {
	if req.Notification == nil {
		return
	}
	message := NewMessage(req.Notification)

	for _, topic := range Topics(req) {
		env := Envelope{Topic: topic, CompanyID: req.CompanyID, Message: message}
		b.enqueue(env)
	}
}

func (b *Broadcaster) shard(topic string) int {
	return int(xxhash.Sum64String(topic) % uint64(len(b.queues)))
}

func (b *Broadcaster) enqueue(env Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.PublishDrops.WithLabelValues("closed").Inc()
		b.logger.Warn("broadcaster closed, dropping notification",
			zap.String("topic", env.Topic),
			zap.String("notification_id", env.Message.ID.String()))
		return
	}

	select {
	case b.queues[b.shard(env.Topic)] <- env:
	default:
		metrics.PublishDrops.WithLabelValues("queue_full").Inc()
		b.logger.Warn("publish queue full, dropping notification",
			zap.String("topic", env.Topic),
			zap.String("notification_id", env.Message.ID.String()))
	}
}

func (b *Broadcaster) worker(queue <-chan Envelope) {
	defer b.wg.Done()

	for env := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		err := b.bus.Publish(ctx, env)
		cancel()

		if err != nil {
			metrics.PublishDrops.WithLabelValues("bus_error").Inc()
			b.logger.Error("failed to publish notification",
				zap.String("topic", env.Topic),
				zap.String("notification_id", env.Message.ID.String()),
				zap.Error(err))
			continue
		}

		mode := "direct"
		if env.Topic == TopicManagers {
			mode = "managers"
		}
		metrics.Publishes.WithLabelValues(mode).Inc()
	}
}

// Close stops accepting envelopes and waits for queued ones to be published.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, q := range b.queues {
		close(q)
	}
	b.mu.Unlock()

	b.wg.Wait()
}
