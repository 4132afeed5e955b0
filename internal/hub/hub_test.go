package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/pkg/metrics"
)

var testMetrics = metrics.New("hub_test")

// fakeBroker is an in-process broker: publishes fan out synchronously to every
// subscriber of the channel.
type fakeBroker struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: make(map[string][]chan []byte)}
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		ch <- payload
	}
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 100)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		remaining := b.subs[channel][:0]
		for _, c := range b.subs[channel] {
			if c != ch {
				remaining = append(remaining, c)
			}
		}
		b.subs[channel] = remaining
		close(ch)
	}()

	return ch, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) subscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

func receiveEvent(t *testing.T, ch <-chan model.SlotEvent) model.SlotEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for slot event")
		return model.SlotEvent{}
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	h := New(newFakeBroker(), zerolog.Nop(), testMetrics)
	defer h.Close()

	events, cancel, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancel()

	published := model.SlotEvent{DoctorID: 7, SlotTime: "2025-03-10T09:30:00", Action: model.SlotActionReserved}
	require.NoError(t, h.Publish(context.Background(), published))

	assert.Equal(t, published, receiveEvent(t, events))
}

func TestSubscribersAreGroupedPerDoctor(t *testing.T) {
	h := New(newFakeBroker(), zerolog.Nop(), testMetrics)
	defer h.Close()

	forSeven, cancelSeven, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancelSeven()

	forNine, cancelNine, err := h.Subscribe(9)
	require.NoError(t, err)
	defer cancelNine()

	event := model.SlotEvent{DoctorID: 9, SlotTime: "2025-03-10T10:00:00", Action: model.SlotActionFreed}
	require.NoError(t, h.Publish(context.Background(), event))

	assert.Equal(t, event, receiveEvent(t, forNine))
	select {
	case leaked := <-forSeven:
		t.Fatalf("subscriber of doctor 7 received foreign event: %+v", leaked)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAllSubscribersOfDoctorReceiveEvent(t *testing.T) {
	h := New(newFakeBroker(), zerolog.Nop(), testMetrics)
	defer h.Close()

	first, cancelFirst, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancelFirst()

	second, cancelSecond, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancelSecond()

	event := model.SlotEvent{DoctorID: 7, SlotTime: "2025-03-10T09:00:00", Action: model.SlotActionReserved}
	require.NoError(t, h.Publish(context.Background(), event))

	assert.Equal(t, event, receiveEvent(t, first))
	assert.Equal(t, event, receiveEvent(t, second))
}

func TestLastUnsubscribeTearsDownRelay(t *testing.T) {
	broker := newFakeBroker()
	h := New(broker, zerolog.Nop(), testMetrics)
	defer h.Close()

	_, cancel, err := h.Subscribe(7)
	require.NoError(t, err)
	require.Equal(t, 1, broker.subscriberCount("slots:doctor:7"))

	cancel()
	// Idempotent: a second cancel is a no-op.
	cancel()

	require.Eventually(t, func() bool {
		return broker.subscriberCount("slots:doctor:7") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSlowSubscriberDoesNotBlockDispatch(t *testing.T) {
	h := New(newFakeBroker(), zerolog.Nop(), testMetrics)
	defer h.Close()

	// Never read from this subscription.
	_, cancel, err := h.Subscribe(7)
	require.NoError(t, err)
	defer cancel()

	event := model.SlotEvent{DoctorID: 7, SlotTime: "2025-03-10T09:00:00", Action: model.SlotActionReserved}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = h.Publish(context.Background(), event)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch blocked on a slow subscriber")
	}
}
