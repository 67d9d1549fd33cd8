package application

import (
	"context"
	"fmt"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type mockedWallet struct {
	mock.Mock
}

func (m *mockedWallet) Status(ctx context.Context) (ports.WalletStatus, error) {
	args := m.Called(ctx)

	var res ports.WalletStatus
	if a := args.Get(0); a != nil {
		res = a.(ports.WalletStatus)
	}
	return res, args.Error(1)
}

func (m *mockedWallet) GetBalance(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockedWallet) Deposit(ctx context.Context, from string, amount uint64) (string, error) {
	args := m.Called(ctx, from, amount)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockedWallet) Transfer(ctx context.Context, to string, amount uint64) (string, error) {
	args := m.Called(ctx, to, amount)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockedWallet) Close() {
	m.Called()
}

type mockedOracle struct {
	mock.Mock
	handler ports.FulfillmentHandler
	resumed []string
}

func (m *mockedOracle) RequestRandomWords(
	ctx context.Context, req ports.RandomnessRequest,
) (string, error) {
	args := m.Called(ctx, req)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockedOracle) ResumeRequest(
	_ context.Context, requestId string, _ ports.RandomnessRequest,
) error {
	m.resumed = append(m.resumed, requestId)
	return nil
}

func (m *mockedOracle) RegisterFulfillmentHandler(handler ports.FulfillmentHandler) {
	m.handler = handler
}

func (m *mockedOracle) Close() {
	m.Called()
}

type mockedScheduler struct {
	mock.Mock
}

func (m *mockedScheduler) Start() {
	m.Called()
}

func (m *mockedScheduler) Stop() {
	m.Called()
}

func (m *mockedScheduler) ScheduleTask(interval int64, immediate bool, task func()) error {
	args := m.Called(interval, immediate, task)
	return args.Error(0)
}

type mockedNotifier struct {
	mock.Mock
}

func (m *mockedNotifier) Notify(ctx context.Context, to any, message string) error {
	args := m.Called(ctx, to, message)
	return args.Error(0)
}

// faultyRepoManager fails saving the round events matched by failOn.
type faultyRepoManager struct {
	ports.RepoManager
	events *faultyEventRepo
}

func newFaultyRepoManager(repoManager ports.RepoManager) *faultyRepoManager {
	return &faultyRepoManager{
		RepoManager: repoManager,
		events:      &faultyEventRepo{RoundEventRepository: repoManager.Events()},
	}
}

func (m *faultyRepoManager) Events() domain.RoundEventRepository {
	return m.events
}

func (m *faultyRepoManager) failOn(fn func(events []domain.RoundEvent) bool) {
	m.events.failOn = fn
}

type faultyEventRepo struct {
	domain.RoundEventRepository
	failOn func(events []domain.RoundEvent) bool
}

func (r *faultyEventRepo) Save(
	ctx context.Context, id string, events ...domain.RoundEvent,
) (*domain.Round, error) {
	if r.failOn != nil && r.failOn(events) {
		return nil, fmt.Errorf("event store unavailable")
	}
	return r.RoundEventRepository.Save(ctx, id, events...)
}
