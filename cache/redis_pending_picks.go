package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pickem-go/models"

	"github.com/redis/go-redis/v9"
)

// RedisPendingPickStore keeps staged picks in Redis as JSON under a TTL
type RedisPendingPickStore struct {
	client *redis.Client
}

func NewRedisPendingPickStore(client *redis.Client) *RedisPendingPickStore {
	return &RedisPendingPickStore{client: client}
}

func pendingKey(token string) string {
	return fmt.Sprintf("pickem:pending:%s", token)
}

// stageAttempts bounds retries when another request changes the key mid-merge
const stageAttempts = 5

func (s *RedisPendingPickStore) Stage(ctx context.Context, token string, picks models.PendingPicks) (models.PendingPicks, error) {
	key := pendingKey(token)

	var merged models.PendingPicks
	// Optimistic lock so two tabs staging at once do not drop each other's picks
	txf := func(tx *redis.Tx) error {
		existing, err := decodePending(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}
		merged = existing.Merge(picks)

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("marshaling pending picks: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, PendingPicksTTL)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < stageAttempts; attempt++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return models.PendingPicks{}, fmt.Errorf("staging pending picks: %w", err)
	}
	return merged, nil
}

func (s *RedisPendingPickStore) Take(ctx context.Context, token string) (models.PendingPicks, error) {
	picks, err := decodePending(s.client.GetDel(ctx, pendingKey(token)).Bytes())
	if err != nil {
		return models.PendingPicks{}, fmt.Errorf("taking pending picks: %w", err)
	}
	return picks, nil
}

func decodePending(data []byte, err error) (models.PendingPicks, error) {
	if errors.Is(err, redis.Nil) {
		return models.PendingPicks{}, nil
	}
	if err != nil {
		return models.PendingPicks{}, err
	}

	var picks models.PendingPicks
	if err := json.Unmarshal(data, &picks); err != nil {
		return models.PendingPicks{}, fmt.Errorf("unmarshaling pending picks: %w", err)
	}
	return picks, nil
}
