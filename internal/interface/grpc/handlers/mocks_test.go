package handlers

import (
	"context"
	"math/big"

	"github.com/ark-network/raffle/internal/core/application"
	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type mockedService struct {
	mock.Mock
	events chan domain.RoundEvent
}

func newMockedService() *mockedService {
	return &mockedService{events: make(chan domain.RoundEvent, 8)}
}

func (m *mockedService) Start() error {
	return m.Called().Error(0)
}

func (m *mockedService) Stop() {
	m.Called()
}

func (m *mockedService) EnterRaffle(
	ctx context.Context, participant string, amount uint64,
) (string, error) {
	args := m.Called(ctx, participant, amount)
	return args.String(0), args.Error(1)
}

func (m *mockedService) CheckUpkeep(ctx context.Context) (*domain.UpkeepStatus, error) {
	args := m.Called(ctx)

	var res *domain.UpkeepStatus
	if a := args.Get(0); a != nil {
		res = a.(*domain.UpkeepStatus)
	}
	return res, args.Error(1)
}

func (m *mockedService) PerformUpkeep(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockedService) FulfillRandomWords(
	ctx context.Context, requestId string, randomWords []*big.Int,
) error {
	return m.Called(ctx, requestId, randomWords).Error(0)
}

func (m *mockedService) RetryPayout(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockedService) GetInfo(ctx context.Context) (*application.RaffleInfo, error) {
	args := m.Called(ctx)

	var res *application.RaffleInfo
	if a := args.Get(0); a != nil {
		res = a.(*application.RaffleInfo)
	}
	return res, args.Error(1)
}

func (m *mockedService) GetParticipant(ctx context.Context, index int) (string, error) {
	args := m.Called(ctx, index)
	return args.String(0), args.Error(1)
}

func (m *mockedService) GetParticipants(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	var res []string
	if a := args.Get(0); a != nil {
		res = a.([]string)
	}
	return res, args.Error(1)
}

func (m *mockedService) GetCurrentRound(ctx context.Context) (*domain.Round, error) {
	args := m.Called(ctx)

	var res *domain.Round
	if a := args.Get(0); a != nil {
		res = a.(*domain.Round)
	}
	return res, args.Error(1)
}

func (m *mockedService) GetRoundById(ctx context.Context, id string) (*domain.Round, error) {
	args := m.Called(ctx, id)

	var res *domain.Round
	if a := args.Get(0); a != nil {
		res = a.(*domain.Round)
	}
	return res, args.Error(1)
}

func (m *mockedService) GetRoundsHistory(
	ctx context.Context, startedAfter, startedBefore int64,
) ([]domain.Round, error) {
	args := m.Called(ctx, startedAfter, startedBefore)

	var res []domain.Round
	if a := args.Get(0); a != nil {
		res = a.([]domain.Round)
	}
	return res, args.Error(1)
}

func (m *mockedService) GetPendingPayouts(ctx context.Context) ([]domain.Payout, error) {
	args := m.Called(ctx)

	var res []domain.Payout
	if a := args.Get(0); a != nil {
		res = a.([]domain.Payout)
	}
	return res, args.Error(1)
}

func (m *mockedService) GetWalletStatus(ctx context.Context) (ports.WalletStatus, error) {
	args := m.Called(ctx)

	var res ports.WalletStatus
	if a := args.Get(0); a != nil {
		res = a.(ports.WalletStatus)
	}
	return res, args.Error(1)
}

func (m *mockedService) GetWalletBalance(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockedService) GetEventsChannel(_ context.Context) <-chan domain.RoundEvent {
	return m.events
}

type walletStatus struct {
	ready bool
}

func (s walletStatus) IsInitialized() bool { return true }
func (s walletStatus) IsUnlocked() bool    { return s.ready }
func (s walletStatus) IsSynced() bool      { return true }

type mockedProver struct {
	mock.Mock
}

func (m *mockedProver) GetProof(requestId string) (*Proof, error) {
	args := m.Called(requestId)

	var res *Proof
	if a := args.Get(0); a != nil {
		res = a.(*Proof)
	}
	return res, args.Error(1)
}
