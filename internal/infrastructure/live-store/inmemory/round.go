package inmemorylivestore

import (
	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/sasha-s/go-deadlock"
)

type currentRoundStore struct {
	lock  deadlock.RWMutex
	round *domain.Round
}

func NewCurrentRoundStore() ports.CurrentRoundStore {
	return &currentRoundStore{}
}

func (s *currentRoundStore) Upsert(fn func(r *domain.Round) *domain.Round) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	var current *domain.Round
	if s.round != nil {
		current = s.round.Clone()
	}
	s.round = snapshot(fn(current))
	return nil
}

func (s *currentRoundStore) Get() *domain.Round {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.round == nil {
		return nil
	}
	return s.round.Clone()
}

// snapshot drops the pending changes so that readers never observe events
// that were already persisted.
func snapshot(round *domain.Round) *domain.Round {
	if round == nil {
		return nil
	}
	return round.Clone()
}
