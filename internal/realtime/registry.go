package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"notification-hub/internal/metrics"
)

var ErrNotAuthenticated = errors.New("connection is not authenticated")

// Registry maps topics to the live connections subscribed to them.
type Registry struct {
	mu              sync.RWMutex
	topics          map[string]map[*Conn]struct{}
	deliveryTimeout time.Duration
	logger          *zap.Logger
}

func NewRegistry(deliveryTimeout time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		topics:          make(map[string]map[*Conn]struct{}),
		deliveryTimeout: deliveryTimeout,
		logger:          logger,
	}
}

func topicsFor(c *Conn) []string {
	topics := []string{UserTopic(c.UserID())}
	if c.IsManager() {
		topics = append(topics, TopicManagers)
	}
	return topics
}

// Attach subscribes an authenticated connection to its topics.
func (r *Registry) Attach(c *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !c.markSubscribed() {
		return ErrNotAuthenticated
	}

	for _, topic := range topicsFor(c) {
		conns, ok := r.topics[topic]
		if !ok {
			conns = make(map[*Conn]struct{})
			r.topics[topic] = conns
		}
		conns[c] = struct{}{}
	}
	metrics.ActiveConnections.Inc()

	r.logger.Debug("ws subscribed",
		zap.String("conn_id", c.ID().String()),
		zap.String("user_id", c.UserID().String()),
		zap.Bool("managers", c.IsManager()))
	return nil
}

// Remove unsubscribes this connection only and closes it.
func (r *Registry) Remove(c *Conn) {
	c.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for _, topic := range topicsFor(c) {
		conns, ok := r.topics[topic]
		if !ok {
			continue
		}
		if _, ok := conns[c]; ok {
			delete(conns, c)
			removed = true
		}
		if len(conns) == 0 {
			delete(r.topics, topic)
		}
	}

	if removed {
		metrics.ActiveConnections.Dec()
	}
}

func (r *Registry) Subscribers(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

// Deliver queues the envelope's message on every matching connection and
// returns how many accepted it. Connections with a full buffer wait together
// for at most the delivery timeout (or ctx, if sooner); one that misses it is
// marked lagging and skipped without waiting until it drains.
func (r *Registry) Deliver(ctx context.Context, env Envelope) int {
	r.mu.RLock()
	subscribers := r.topics[env.Topic]
	targets := make([]*Conn, 0, len(subscribers))
	for c := range subscribers {
		if env.Topic == TopicManagers && !c.Manages(env.CompanyID) {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}

	payload, err := json.Marshal(env.Message)
	if err != nil {
		r.logger.Error("failed to encode notification message", zap.Error(err))
		return 0
	}

	delivered := 0
	var blocked []*Conn
	for _, c := range targets {
		switch {
		case c.TrySend(payload):
			c.setLagging(false)
			delivered++
		case c.State() == StateClosed:
			// Closing; nothing to report.
		case c.Lagging():
			r.drop(env, c)
		default:
			blocked = append(blocked, c)
		}
	}

	if len(blocked) > 0 {
		delivered += r.wait(ctx, env, payload, blocked)
	}
	metrics.Deliveries.Add(float64(delivered))

	return delivered
}

func (r *Registry) wait(ctx context.Context, env Envelope, payload []byte, conns []*Conn) int {
	ctx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
	defer cancel()

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
	)
	for _, c := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.enqueue(ctx, payload) {
				accepted.Add(1)
				return
			}
			if c.State() == StateClosed {
				return
			}
			c.setLagging(true)
			r.drop(env, c)
		}()
	}
	wg.Wait()

	return int(accepted.Load())
}

func (r *Registry) drop(env Envelope, c *Conn) {
	metrics.DeliveryDrops.Inc()
	r.logger.Warn("dropping notification for slow connection",
		zap.String("topic", env.Topic),
		zap.String("conn_id", c.ID().String()),
		zap.String("notification_id", env.Message.ID.String()))
}
