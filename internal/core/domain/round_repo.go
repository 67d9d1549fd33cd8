package domain

import "context"

type RoundEventRepository interface {
	Save(ctx context.Context, id string, events ...RoundEvent) (*Round, error)
	Load(ctx context.Context, id string) (*Round, error)
	RegisterEventsHandler(func(*Round))
	Close()
}

type RoundRepository interface {
	AddOrUpdateRound(ctx context.Context, round Round) error
	GetRoundWithId(ctx context.Context, id string) (*Round, error)
	GetRoundWithRequestId(ctx context.Context, requestId string) (*Round, error)
	// GetCurrentRound returns the round not yet ended, or nil if there is none.
	GetCurrentRound(ctx context.Context) (*Round, error)
	// GetLastEndedRound returns the most recently ended round, or nil.
	GetLastEndedRound(ctx context.Context) (*Round, error)
	GetEndedRounds(ctx context.Context, startedAfter, startedBefore int64) ([]Round, error)
	Close()
}

type PayoutRepository interface {
	AddOrUpdatePayout(ctx context.Context, payout Payout) error
	// GetPayout returns the payout of the given round, or nil if there is none.
	GetPayout(ctx context.Context, roundId string) (*Payout, error)
	GetPendingPayouts(ctx context.Context) ([]Payout, error)
	Close()
}
