package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/pkg/messaging"
	"github.com/medconnect/booking-api/pkg/metrics"
)

const subscriberBuffer = 16

// Hub fans slot events out to live subscribers, grouped per doctor. Events
// travel through the message broker so every running instance sees them; the
// local registry then delivers to connected clients. Delivery is best-effort,
// at-most-once: a subscriber that cannot keep up loses events and is expected
// to re-query availability, which is always the ground truth.
type Hub struct {
	broker  messaging.Broker
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	groups map[int64]*group
}

type group struct {
	subs   map[chan model.SlotEvent]struct{}
	cancel context.CancelFunc
}

func New(broker messaging.Broker, logger zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		broker:  broker,
		logger:  logger.With().Str("component", "slot_hub").Logger(),
		metrics: m,
		groups:  make(map[int64]*group),
	}
}

func channelName(doctorID int64) string {
	return fmt.Sprintf("slots:doctor:%d", doctorID)
}

// Publish broadcasts a slot state change to every subscriber of the doctor.
// Publishing to a doctor nobody watches is a no-op on the delivery side.
func (h *Hub) Publish(ctx context.Context, event model.SlotEvent) error {
	if err := h.broker.Publish(ctx, channelName(event.DoctorID), event); err != nil {
		return fmt.Errorf("failed to publish slot event: %w", err)
	}
	h.metrics.EventsPublished.WithLabelValues(string(event.Action)).Inc()
	return nil
}

// Subscribe registers a live subscriber for one doctor. The returned cancel
// must be called when the client disconnects; the returned channel is never
// closed, readers stop via their own context.
func (h *Hub) Subscribe(doctorID int64) (<-chan model.SlotEvent, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[doctorID]
	if !ok {
		relayCtx, cancel := context.WithCancel(context.Background())
		msgs, err := h.broker.Subscribe(relayCtx, channelName(doctorID))
		if err != nil {
			cancel()
			return nil, nil, fmt.Errorf("failed to subscribe to doctor %d: %w", doctorID, err)
		}

		g = &group{
			subs:   make(map[chan model.SlotEvent]struct{}),
			cancel: cancel,
		}
		h.groups[doctorID] = g
		go h.relay(doctorID, msgs)
	}

	ch := make(chan model.SlotEvent, subscriberBuffer)
	g.subs[ch] = struct{}{}
	h.metrics.SubscriberGauge.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.unsubscribe(doctorID, ch)
		})
	}
	return ch, cancel, nil
}

func (h *Hub) unsubscribe(doctorID int64, ch chan model.SlotEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[doctorID]
	if !ok {
		return
	}
	if _, ok := g.subs[ch]; !ok {
		return
	}

	delete(g.subs, ch)
	h.metrics.SubscriberGauge.Dec()

	// Last subscriber gone: tear down the broker relay for this doctor.
	if len(g.subs) == 0 {
		g.cancel()
		delete(h.groups, doctorID)
	}
}

func (h *Hub) relay(doctorID int64, msgs <-chan []byte) {
	for payload := range msgs {
		var event model.SlotEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			h.logger.Warn().Err(err).Int64("doctor_id", doctorID).Msg("dropping malformed slot event")
			continue
		}
		h.dispatch(doctorID, event)
	}
}

func (h *Hub) dispatch(doctorID int64, event model.SlotEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[doctorID]
	if !ok {
		return
	}

	for ch := range g.subs {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full: drop rather than block the relay.
			h.metrics.EventsDropped.Inc()
		}
	}
}

// Close tears down every relay. Subscriber channels drain and go quiet.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for doctorID, g := range h.groups {
		g.cancel()
		delete(h.groups, doctorID)
	}
}
