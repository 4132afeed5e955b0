package reservation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medconnect/booking-api/pkg/metrics"
)

// ReleaseStatus is the outcome of a verified release.
type ReleaseStatus int

const (
	Released ReleaseStatus = iota
	NotFound
	WrongHolder
)

// compare-and-delete, evaluated atomically server-side:
// -1 = key absent, -2 = holder mismatch, 1 = deleted
var releaseScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return -1
end
if v ~= ARGV[1] then
  return -2
end
redis.call('DEL', KEYS[1])
return 1
`)

// Store is the single point of mutual exclusion for slot holds. All hold
// state lives in Redis under TTL; nothing is cached in-process.
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		client:  client,
		ttl:     ttl,
		logger:  logger.With().Str("component", "reservation_store").Logger(),
		metrics: m,
	}
}

// TTL returns the fixed hold lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Acquire atomically creates the hold if and only if no hold exists for the
// key. There is no re-entrancy: a second acquire by the current holder also
// fails. Backend errors are returned as-is; callers must fail closed.
func (s *Store) Acquire(ctx context.Context, doctorID int64, slotTime time.Time, holderID int64) (bool, error) {
	key := HoldKey(doctorID, slotTime)

	ok, err := s.client.SetNX(ctx, key, strconv.FormatInt(holderID, 10), s.ttl).Result()
	if err != nil {
		s.metrics.RedisOperations.WithLabelValues("acquire", "error").Inc()
		return false, fmt.Errorf("failed to acquire hold %s: %w", key, err)
	}

	if ok {
		s.metrics.HoldsAcquired.Inc()
		s.logger.Debug().Str("key", key).Int64("holder", holderID).Msg("hold acquired")
	} else {
		s.metrics.HoldContention.Inc()
	}
	return ok, nil
}

// PeekHolder returns the current holder without touching the hold.
func (s *Store) PeekHolder(ctx context.Context, doctorID int64, slotTime time.Time) (int64, bool, error) {
	key := HoldKey(doctorID, slotTime)

	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		s.metrics.RedisOperations.WithLabelValues("peek", "error").Inc()
		return 0, false, fmt.Errorf("failed to read hold %s: %w", key, err)
	}

	holder, err := normalizeHolder(raw)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt hold value for %s: %w", key, err)
	}
	return holder, true, nil
}

// VerifyAndRelease deletes the hold only if holderID currently owns it. The
// check and delete run as one server-side script, so a concurrent expiry or
// re-acquire between them is impossible.
func (s *Store) VerifyAndRelease(ctx context.Context, doctorID int64, slotTime time.Time, holderID int64) (ReleaseStatus, error) {
	key := HoldKey(doctorID, slotTime)

	res, err := releaseScript.Run(ctx, s.client, []string{key}, strconv.FormatInt(holderID, 10)).Int()
	if err != nil {
		s.metrics.RedisOperations.WithLabelValues("release", "error").Inc()
		return NotFound, fmt.Errorf("failed to release hold %s: %w", key, err)
	}

	switch res {
	case -1:
		s.metrics.HoldsReleased.WithLabelValues("not_found").Inc()
		return NotFound, nil
	case -2:
		s.metrics.HoldsReleased.WithLabelValues("wrong_holder").Inc()
		return WrongHolder, nil
	default:
		s.metrics.HoldsReleased.WithLabelValues("released").Inc()
		s.logger.Debug().Str("key", key).Int64("holder", holderID).Msg("hold released")
		return Released, nil
	}
}

// HeldSlots enumerates unexpired holds for a doctor on a calendar date and
// returns the set of held times of day as HH:MM:SS strings.
func (s *Store) HeldSlots(ctx context.Context, doctorID int64, date time.Time) (map[string]struct{}, error) {
	pattern := holdKeyDatePrefix(doctorID, date)
	held := make(map[string]struct{})

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			s.metrics.RedisOperations.WithLabelValues("scan", "error").Inc()
			return nil, fmt.Errorf("failed to scan holds: %w", err)
		}

		for _, key := range keys {
			_, slotTime, ok := ParseHoldKey(key)
			if !ok {
				continue
			}
			held[slotTime.Format("15:04:05")] = struct{}{}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return held, nil
}

// normalizeHolder converts the backend's string representation to the
// canonical int64 identity exactly once, at the store boundary.
func normalizeHolder(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}
