package redislivestore

import (
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

func NewLiveStore(rdb *redis.Client, numOfRetries int) ports.LiveStore {
	return &redisLiveStore{
		currentRoundStore: NewCurrentRoundStore(rdb, numOfRetries),
	}
}

func (s *redisLiveStore) CurrentRound() ports.CurrentRoundStore { return s.currentRoundStore }

type redisLiveStore struct {
	currentRoundStore ports.CurrentRoundStore
}
