package application

import (
	"context"
	"math/big"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
)

type Service interface {
	Start() error
	Stop()
	EnterRaffle(ctx context.Context, participant string, amount uint64) (string, error)
	CheckUpkeep(ctx context.Context) (*domain.UpkeepStatus, error)
	PerformUpkeep(ctx context.Context) (string, error)
	FulfillRandomWords(ctx context.Context, requestId string, randomWords []*big.Int) error
	RetryPayout(ctx context.Context) (string, error)
	GetInfo(ctx context.Context) (*RaffleInfo, error)
	GetParticipant(ctx context.Context, index int) (string, error)
	GetParticipants(ctx context.Context) ([]string, error)
	GetCurrentRound(ctx context.Context) (*domain.Round, error)
	GetRoundById(ctx context.Context, id string) (*domain.Round, error)
	GetRoundsHistory(ctx context.Context, startedAfter, startedBefore int64) ([]domain.Round, error)
	GetPendingPayouts(ctx context.Context) ([]domain.Payout, error)
	GetWalletBalance(ctx context.Context) (uint64, error)
	GetWalletStatus(ctx context.Context) (ports.WalletStatus, error)
	GetEventsChannel(ctx context.Context) <-chan domain.RoundEvent
}

type Config struct {
	EntranceFee         uint64
	Interval            int64
	UpkeepCheckInterval int64
	PayoutRetryInterval int64
	Randomness          ports.RandomnessRequest
}

type RaffleInfo struct {
	RoundId              string
	EntranceFee          uint64
	Interval             int64
	Phase                domain.RafflePhase
	NumOfParticipants    int
	Balance              uint64
	LastRoundTimestamp   int64
	NextDrawTimestamp    int64
	RecentWinner         string
	PendingRequestId     string
	KeyHash              string
	SubscriptionId       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
}
