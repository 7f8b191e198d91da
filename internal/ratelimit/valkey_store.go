package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentilens/internal/metrics"
	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "sentilens:ratelimit:"

// slidingWindowScript trims the sorted set to the window, then records the
// request if there is room. Returns 1 when admitted, 0 otherwise.
// KEYS: [1]=log key. ARGV: [1]=now_ms, [2]=window_ms, [3]=limit, [4]=member
var slidingWindowScript = valkey.NewLuaScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return 1
`)

// ValkeyStore shares the request log between replicas. Keys expire one
// window after their newest entry, so idle clients need no sweeping.
type ValkeyStore struct {
	client  valkey.Client
	clock   clockwork.Clock
	limit   int
	window  time.Duration
	timeout time.Duration
}

func NewValkeyStore(client valkey.Client, clock clockwork.Clock, limit int, window time.Duration) *ValkeyStore {
	return &ValkeyStore{
		client:  client,
		clock:   clock,
		limit:   limit,
		window:  window,
		timeout: 500 * time.Millisecond,
	}
}

// Allow fails open: when Valkey cannot be reached the request is admitted
// and the failure is logged.
func (s *ValkeyStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	allowed, err := s.check(ctx, identifier)
	if err != nil {
		metrics.RateLimitStoreErrors.Inc()
		slog.Warn("[RateLimiter] Valkey check failed, admitting request",
			slog.String("client", identifier),
			slog.String("error", err.Error()))
		return true, nil
	}
	return allowed, nil
}

func (s *ValkeyStore) check(ctx context.Context, identifier string) (bool, error) {
	res, err := slidingWindowScript.Exec(ctx, s.client,
		[]string{keyPrefix + identifier},
		[]string{
			strconv.FormatInt(s.clock.Now().UnixMilli(), 10),
			strconv.FormatInt(s.window.Milliseconds(), 10),
			strconv.Itoa(s.limit),
			uuid.NewString(),
		},
	).AsInt64()
	if err != nil {
		return false, fmt.Errorf("[RateLimiter] sliding window script failed: %w", err)
	}
	return res == 1, nil
}
