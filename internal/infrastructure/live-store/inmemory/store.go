package inmemorylivestore

import (
	"github.com/ark-network/raffle/internal/core/ports"
)

func NewLiveStore() ports.LiveStore {
	return &inMemoryLiveStore{
		currentRoundStore: NewCurrentRoundStore(),
	}
}

func (s *inMemoryLiveStore) CurrentRound() ports.CurrentRoundStore { return s.currentRoundStore }

type inMemoryLiveStore struct {
	currentRoundStore ports.CurrentRoundStore
}
