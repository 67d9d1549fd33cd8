package redislivestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const currentRoundKey = "currentRoundStore:round"

type currentRoundStore struct {
	rdb          *redis.Client
	numOfRetries int
}

func NewCurrentRoundStore(rdb *redis.Client, numOfRetries int) ports.CurrentRoundStore {
	if numOfRetries <= 0 {
		numOfRetries = 1
	}
	return &currentRoundStore{rdb: rdb, numOfRetries: numOfRetries}
}

func (s *currentRoundStore) Upsert(fn func(r *domain.Round) *domain.Round) error {
	ctx := context.Background()

	var err error
	for attempt := 0; attempt < s.numOfRetries; attempt++ {
		err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			round, err := getRound(ctx, tx)
			if err != nil {
				return err
			}

			updated := fn(round)
			if updated == nil {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, currentRoundKey)
					return nil
				})
				return err
			}

			val, err := json.Marshal(updated)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, currentRoundKey, val, 0)
				return nil
			})
			return err
		}, currentRoundKey)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	return fmt.Errorf("failed to update current round: %w", err)
}

func (s *currentRoundStore) Get() *domain.Round {
	round, err := getRound(context.Background(), s.rdb)
	if err != nil {
		log.WithError(err).Warn("failed to get current round")
		return nil
	}
	return round
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getRound(ctx context.Context, rdb getter) (*domain.Round, error) {
	data, err := rdb.Get(ctx, currentRoundKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var round domain.Round
	if err := json.Unmarshal(data, &round); err != nil {
		return nil, err
	}
	return &round, nil
}
