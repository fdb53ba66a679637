package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"pickem-go/models"

	"github.com/redis/go-redis/v9"
)

// GamesUpdatedStream is the stream reconciliation reports are appended to
const GamesUpdatedStream = "pickem.games.updates"

// streamMaxLen caps the stream so it does not grow without bound
const streamMaxLen = 10000

// StreamPublisher publishes reconciliation reports to a Redis stream
type StreamPublisher struct {
	client *redis.Client
	stream string
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		stream: GamesUpdatedStream,
	}
}

// NotifyGamesUpdated appends the report to the stream
func (p *StreamPublisher) NotifyGamesUpdated(ctx context.Context, report *models.ReconcileReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling reconcile report: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"day":       report.Day,
			"inserted":  strconv.FormatInt(report.Inserted, 10),
			"updated":   strconv.FormatInt(report.Updated, 10),
			"deleted":   strconv.FormatInt(report.Deleted, 10),
			"subseason": strconv.Itoa(report.SubSeasonID),
		},
	}).Err()
}
