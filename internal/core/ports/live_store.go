package ports

import "github.com/ark-network/raffle/internal/core/domain"

// LiveStore holds the hot, non-durable state of the raffle shared by the
// service replicas.
type LiveStore interface {
	CurrentRound() CurrentRoundStore
}

type CurrentRoundStore interface {
	Upsert(fn func(r *domain.Round) *domain.Round) error
	Get() *domain.Round
}
