package counter

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	webhookOutcomesKey = "planpay:counters:webhook:" // + YYYY-MM-DD
	dayLayout          = "2006-01-02"
	retention          = 35 * 24 * time.Hour
	MaxDays            = 31
)

var ErrNoClient = errors.New("counter: no redis client")

// DailyOutcomes holds the webhook item outcomes counted on one UTC day.
type DailyOutcomes struct {
	Date   string           `json:"date"`
	Counts map[string]int64 `json:"counts"`
}

// WebhookCounter keeps per-day webhook outcome counters in Redis hashes.
type WebhookCounter struct {
	client *redis.Client
}

func NewWebhookCounter(client *redis.Client) *WebhookCounter {
	return &WebhookCounter{client: client}
}

func dayKey(day time.Time) string {
	return webhookOutcomesKey + day.UTC().Format(dayLayout)
}

// AddWebhookOutcomes increments the counters of day by counts.
func (c *WebhookCounter) AddWebhookOutcomes(ctx context.Context, day time.Time, counts map[string]int64) error {
	if c == nil || c.client == nil {
		return ErrNoClient
	}
	if len(counts) == 0 {
		return nil
	}

	key := dayKey(day)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for field, inc := range counts {
			if inc == 0 {
				continue
			}
			pipe.HIncrBy(ctx, key, field, inc)
		}
		pipe.Expire(ctx, key, retention)
		return nil
	})
	return err
}

// WebhookOutcomes returns the counters of the last days days ending at until, oldest first.
func (c *WebhookCounter) WebhookOutcomes(ctx context.Context, until time.Time, days int) ([]DailyOutcomes, error) {
	if c == nil || c.client == nil {
		return nil, ErrNoClient
	}
	if days < 1 {
		days = 1
	}
	if days > MaxDays {
		days = MaxDays
	}

	until = until.UTC()
	cmds := make([]*redis.MapStringStringCmd, days)
	dates := make([]string, days)
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := 0; i < days; i++ {
			day := until.AddDate(0, 0, i-days+1)
			dates[i] = day.Format(dayLayout)
			cmds[i] = pipe.HGetAll(ctx, dayKey(day))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]DailyOutcomes, 0, days)
	for i, cmd := range cmds {
		counts := make(map[string]int64)
		for field, raw := range cmd.Val() {
			n, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil {
				continue
			}
			counts[field] = n
		}
		out = append(out, DailyOutcomes{Date: dates[i], Counts: counts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
