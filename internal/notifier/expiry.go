package notifier

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/reservation"
	"github.com/medconnect/booking-api/pkg/metrics"
)

// expiredChannel is the keyspace notification channel for db 0. Requires
// `notify-keyspace-events Ex` on the Redis server.
const expiredChannel = "__keyevent@0__:expired"

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// State of the expiry subscription.
type State int32

const (
	StateSubscribing State = iota
	StateListening
	StateStopped
)

// Publisher receives the freed events derived from expired holds.
type Publisher interface {
	Publish(ctx context.Context, event model.SlotEvent) error
}

// ExpiryNotifier listens for hold-key expiry events and converts each into a
// "freed" broadcast. Losing the subscription is degraded UX, not a
// correctness problem: availability is always recomputed from the store, so
// the notifier retries forever instead of failing the process.
type ExpiryNotifier struct {
	client  *redis.Client
	pub     Publisher
	logger  zerolog.Logger
	metrics *metrics.Metrics
	state   atomic.Int32
}

func NewExpiryNotifier(client *redis.Client, pub Publisher, logger zerolog.Logger, m *metrics.Metrics) *ExpiryNotifier {
	return &ExpiryNotifier{
		client:  client,
		pub:     pub,
		logger:  logger.With().Str("component", "expiry_notifier").Logger(),
		metrics: m,
	}
}

// State returns the current lifecycle state.
func (n *ExpiryNotifier) State() State {
	return State(n.state.Load())
}

// Run blocks until ctx is cancelled, resubscribing with exponential backoff
// whenever the connection drops.
func (n *ExpiryNotifier) Run(ctx context.Context) {
	defer n.state.Store(int32(StateStopped))

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		n.state.Store(int32(StateSubscribing))
		pubsub := n.client.Subscribe(ctx, expiredChannel)

		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			n.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("expiry subscribe failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = initialBackoff
		n.state.Store(int32(StateListening))
		n.logger.Info().Str("channel", expiredChannel).Msg("listening for hold expiries")

		n.listen(ctx, pubsub.Channel())
		pubsub.Close()
	}
}

func (n *ExpiryNotifier) listen(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				n.logger.Warn().Msg("expiry subscription lost")
				return
			}
			n.handleExpiredKey(ctx, msg.Payload)
		}
	}
}

// handleExpiredKey parses an expired key and publishes the freed event. Keys
// from other keyspaces are ignored, not errors.
func (n *ExpiryNotifier) handleExpiredKey(ctx context.Context, key string) {
	doctorID, slotTime, ok := reservation.ParseHoldKey(key)
	if !ok {
		if strings.HasPrefix(key, "slot_hold:") {
			n.logger.Warn().Str("key", key).Msg("ignoring malformed hold key")
		}
		return
	}

	n.metrics.HoldsExpired.Inc()

	event := model.SlotEvent{
		DoctorID: doctorID,
		SlotTime: model.FormatSlotTime(slotTime),
		Action:   model.SlotActionFreed,
	}
	if err := n.pub.Publish(ctx, event); err != nil {
		n.logger.Error().Err(err).Int64("doctor_id", doctorID).Str("slot_time", event.SlotTime).
			Msg("failed to publish freed event")
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
