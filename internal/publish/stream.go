// Package publish fans a finished run out to a Redis stream.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"safe-bets/internal/pipeline"
	"safe-bets/internal/reporting"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "recommendations"

// DefaultMaxLen caps the stream length (approximate trimming).
const DefaultMaxLen = 10000

// StreamPublisher publishes recommendations to a Redis stream, one entry each.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a new stream publisher.
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: DefaultMaxLen,
	}
}

// Name identifies the publisher in logs and metrics.
func (p *StreamPublisher) Name() string {
	return "redis"
}

// Stream returns the stream key.
func (p *StreamPublisher) Stream() string {
	return p.stream
}

// Publish adds every recommendation of the run in rank order using one pipeline.
func (p *StreamPublisher) Publish(ctx context.Context, res *pipeline.Result) error {
	views := reporting.NewRecommendationViews(res.RunDate, res.Recommendations)
	if len(views) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, v := range views {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("error marshaling recommendation %s: %w", v.ID, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"run_date": res.RunDate,
				"data":     string(data),
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error publishing to stream %s: %w", p.stream, err)
	}
	return nil
}

var _ pipeline.Publisher = (*StreamPublisher)(nil)
