package ports

import "github.com/ark-network/raffle/internal/core/domain"

type RepoManager interface {
	Events() domain.RoundEventRepository
	Rounds() domain.RoundRepository
	Payouts() domain.PayoutRepository
	Close()
}
