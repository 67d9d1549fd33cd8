package application

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/ark-network/raffle/internal/infrastructure/db"
	inmemorylivestore "github.com/ark-network/raffle/internal/infrastructure/live-store/inmemory"
	externaloracle "github.com/ark-network/raffle/internal/infrastructure/oracle/external"
	inmemorywallet "github.com/ark-network/raffle/internal/infrastructure/wallet/inmemory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	entranceFee = uint64(10_000)
	interval    = int64(30)
)

var (
	ctx       = context.Background()
	startTime = time.Unix(1_700_000_000, 0)
	params    = ports.RandomnessRequest{
		KeyHash:              "0xkeyhash",
		SubscriptionId:       1,
		RequestConfirmations: 3,
		CallbackGasLimit:     500_000,
		NumWords:             1,
	}
)

type testEnv struct {
	svc         *raffleService
	wallet      *mockedWallet
	oracle      *mockedOracle
	repoManager ports.RepoManager
	clock       *time.Time
}

func newTestEnv(t *testing.T, notifier ports.Notifier) *testEnv {
	return newTestEnvWithRepo(t, newRepoManager(t), notifier, startTime)
}

func newRepoManager(t *testing.T) ports.RepoManager {
	repoManager, err := db.NewService(db.ServiceConfig{
		EventStoreType:   "badger",
		DataStoreType:    "badger",
		EventStoreConfig: []interface{}{"", nil},
		DataStoreConfig:  []interface{}{"", nil},
	})
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return repoManager
}

func newTestEnvWithRepo(
	t *testing.T, repoManager ports.RepoManager, notifier ports.Notifier, now time.Time,
) *testEnv {
	wallet := &mockedWallet{}
	oracle := &mockedOracle{}
	clock := now

	svc, err := newRaffleService(
		Config{
			EntranceFee: entranceFee,
			Interval:    interval,
			Randomness:  params,
		},
		wallet, repoManager, oracle, nil,
		inmemorylivestore.NewLiveStore(), notifier,
		func() time.Time { return clock },
	)
	require.NoError(t, err)
	require.NotNil(t, oracle.handler)

	return &testEnv{svc, wallet, oracle, repoManager, &clock}
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

func (e *testEnv) enter(t *testing.T, participants ...string) {
	for i, p := range participants {
		txid := fmt.Sprintf("deposit-%s-%d", p, i)
		e.wallet.On("Deposit", mock.Anything, p, entranceFee).Return(txid, nil).Once()
		got, err := e.svc.EnterRaffle(ctx, p, entranceFee)
		require.NoError(t, err)
		require.Equal(t, txid, got)
	}
}

func (e *testEnv) startDraw(t *testing.T, requestId string) {
	e.oracle.On("RequestRandomWords", mock.Anything, params).Return(requestId, nil).Once()
	e.advance(time.Duration(interval+1) * time.Second)
	got, err := e.svc.PerformUpkeep(ctx)
	require.NoError(t, err)
	require.Equal(t, requestId, got)
}

func TestRaffleService(t *testing.T) {
	t.Run("new", func(t *testing.T) {
		env := newTestEnv(t, nil)

		info, err := env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, info.RoundId)
		require.Equal(t, entranceFee, info.EntranceFee)
		require.Equal(t, interval, info.Interval)
		require.Equal(t, domain.OpenPhase, info.Phase)
		require.Zero(t, info.NumOfParticipants)
		require.Zero(t, info.Balance)
		require.Equal(t, startTime.Unix(), info.LastRoundTimestamp)
		require.Equal(t, startTime.Unix()+interval, info.NextDrawTimestamp)
		require.Empty(t, info.RecentWinner)
		require.Empty(t, info.PendingRequestId)
		require.Equal(t, params.NumWords, info.NumWords)
		require.Equal(t, params.RequestConfirmations, info.RequestConfirmations)

		_, err = newRaffleService(
			Config{EntranceFee: entranceFee, Interval: 0},
			env.wallet, env.repoManager, env.oracle, nil,
			inmemorylivestore.NewLiveStore(), nil, time.Now,
		)
		require.EqualError(t, err, "invalid round interval 0, must be at least 1 second")
	})

	t.Run("enter", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.enter(t, "alice", "bob", "alice")

		participants, err := env.svc.GetParticipants(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"alice", "bob", "alice"}, participants)

		participant, err := env.svc.GetParticipant(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "bob", participant)

		_, err = env.svc.GetParticipant(ctx, 3)
		require.ErrorIs(t, err, domain.ErrIndexOutOfRange)

		info, err := env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, info.NumOfParticipants)
		require.Equal(t, 3*entranceFee, info.Balance)

		// Underpayment is rejected before touching the wallet.
		_, err = env.svc.EnterRaffle(ctx, "carol", entranceFee-1)
		require.ErrorIs(t, err, domain.ErrInsufficientFee)

		env.wallet.On("Deposit", mock.Anything, "carol", entranceFee).
			Return("", fmt.Errorf("wallet locked")).Once()
		_, err = env.svc.EnterRaffle(ctx, "carol", entranceFee)
		require.EqualError(t, err, "failed to deposit entrance fee: wallet locked")

		info, err = env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, info.NumOfParticipants)
		require.Equal(t, 3*entranceFee, info.Balance)
		env.wallet.AssertNumberOfCalls(t, "Deposit", 4)
	})

	t.Run("upkeep", func(t *testing.T) {
		env := newTestEnv(t, nil)

		env.advance(time.Duration(interval+1) * time.Second)
		_, err := env.svc.PerformUpkeep(ctx)
		require.ErrorIs(t, err, domain.ErrUpkeepNotNeeded)

		*env.clock = startTime
		env.enter(t, "alice")

		env.advance(time.Duration(interval-1) * time.Second)
		status, err := env.svc.CheckUpkeep(ctx)
		require.NoError(t, err)
		require.False(t, status.UpkeepNeeded)

		_, err = env.svc.PerformUpkeep(ctx)
		require.ErrorIs(t, err, domain.ErrUpkeepNotNeeded)
		env.oracle.AssertNotCalled(t, "RequestRandomWords", mock.Anything, mock.Anything)

		// Due exactly when the interval has elapsed.
		env.advance(time.Second)
		status, err = env.svc.CheckUpkeep(ctx)
		require.NoError(t, err)
		require.True(t, status.UpkeepNeeded)
		require.True(t, status.TimePassed)

		env.oracle.On("RequestRandomWords", mock.Anything, params).
			Return("", fmt.Errorf("oracle unavailable")).Once()
		_, err = env.svc.PerformUpkeep(ctx)
		require.EqualError(t, err, "failed to request random words: oracle unavailable")

		info, err := env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.OpenPhase, info.Phase)

		env.oracle.On("RequestRandomWords", mock.Anything, params).Return("req-1", nil).Once()
		requestId, err := env.svc.PerformUpkeep(ctx)
		require.NoError(t, err)
		require.Equal(t, "req-1", requestId)

		info, err = env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.DrawingPhase, info.Phase)
		require.Equal(t, "req-1", info.PendingRequestId)

		_, err = env.svc.PerformUpkeep(ctx)
		require.ErrorIs(t, err, domain.ErrUpkeepNotNeeded)

		_, err = env.svc.EnterRaffle(ctx, "bob", entranceFee*2)
		require.ErrorIs(t, err, domain.ErrRoundNotOpen)
	})

	t.Run("fulfill", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.enter(t, "alice", "bob", "carol", "alice", "dave", "carol")
		env.startDraw(t, "req-1")

		err := env.svc.FulfillRandomWords(ctx, "req-2", []*big.Int{big.NewInt(13)})
		require.ErrorIs(t, err, domain.ErrUnknownRequest)

		err = env.svc.FulfillRandomWords(ctx, "req-1", nil)
		require.ErrorIs(t, err, ErrMissingWords)

		drawRound, err := env.svc.GetCurrentRound(ctx)
		require.NoError(t, err)

		env.advance(5 * time.Second)
		env.wallet.On("Transfer", mock.Anything, "bob", 6*entranceFee).Return("payout-tx", nil).Once()
		err = env.svc.FulfillRandomWords(ctx, "req-1", []*big.Int{big.NewInt(13)})
		require.NoError(t, err)

		info, err := env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.NotEqual(t, drawRound.Id, info.RoundId)
		require.Equal(t, domain.OpenPhase, info.Phase)
		require.Zero(t, info.NumOfParticipants)
		require.Zero(t, info.Balance)
		require.Equal(t, "bob", info.RecentWinner)
		require.Equal(t, env.clock.Unix(), info.LastRoundTimestamp)
		require.Empty(t, info.PendingRequestId)

		ended, err := env.svc.GetRoundById(ctx, drawRound.Id)
		require.NoError(t, err)
		require.True(t, ended.IsEnded())
		require.Equal(t, "bob", ended.Winner)
		require.Equal(t, 1, ended.WinnerIndex)
		require.Equal(t, "payout-tx", ended.PayoutTxid)
		require.Equal(t, 6*entranceFee, ended.PayoutAmount)

		history, err := env.svc.GetRoundsHistory(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, drawRound.Id, history[0].Id)

		// The same request cannot be fulfilled twice.
		err = env.svc.FulfillRandomWords(ctx, "req-1", []*big.Int{big.NewInt(13)})
		require.ErrorIs(t, err, domain.ErrUnknownRequest)
		require.EqualError(t, err, fmt.Sprintf(
			"unknown randomness request: request req-1 already fulfilled for round %s",
			drawRound.Id,
		))
		env.wallet.AssertNumberOfCalls(t, "Transfer", 1)

		_, err = env.svc.GetRoundById(ctx, "unknown")
		require.EqualError(t, err, "round unknown not found")
		require.ErrorIs(t, err, ErrRoundNotFound)
	})

	t.Run("fulfill via oracle callback", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.enter(t, "alice")
		env.startDraw(t, "req-1")

		env.wallet.On("Transfer", mock.Anything, "alice", entranceFee).Return("payout-tx", nil).Once()
		err := env.oracle.handler(ctx, "req-1", []*big.Int{big.NewInt(987654321)})
		require.NoError(t, err)

		info, err := env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, "alice", info.RecentWinner)
	})

	t.Run("payout failure", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.enter(t, "alice", "bob", "carol")
		env.startDraw(t, "req-1")

		env.wallet.On("Transfer", mock.Anything, "carol", 3*entranceFee).
			Return("", fmt.Errorf("insufficient funds")).Once()
		err := env.svc.FulfillRandomWords(ctx, "req-1", []*big.Int{big.NewInt(5)})
		require.ErrorIs(t, err, domain.ErrPayoutTransferFailed)

		// The round is left as it was before the fulfillment.
		info, err := env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.DrawingPhase, info.Phase)
		require.Equal(t, "req-1", info.PendingRequestId)
		require.Equal(t, 3, info.NumOfParticipants)
		require.Equal(t, 3*entranceFee, info.Balance)
		require.Empty(t, info.RecentWinner)

		pending, err := env.svc.GetPendingPayouts(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, "carol", pending[0].Winner)
		require.Equal(t, 1, pending[0].Attempts)
		require.Equal(t, "insufficient funds", pending[0].LastError)

		// A redelivered fulfillment keeps the first selection.
		env.wallet.On("Transfer", mock.Anything, "carol", 3*entranceFee).
			Return("", fmt.Errorf("insufficient funds")).Once()
		err = env.svc.FulfillRandomWords(ctx, "req-1", []*big.Int{big.NewInt(3)})
		require.ErrorIs(t, err, domain.ErrPayoutTransferFailed)

		env.wallet.On("Transfer", mock.Anything, "carol", 3*entranceFee).Return("payout-tx", nil).Once()
		txid, err := env.svc.RetryPayout(ctx)
		require.NoError(t, err)
		require.Equal(t, "payout-tx", txid)

		info, err = env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.OpenPhase, info.Phase)
		require.Zero(t, info.NumOfParticipants)
		require.Equal(t, "carol", info.RecentWinner)

		pending, err = env.svc.GetPendingPayouts(ctx)
		require.NoError(t, err)
		require.Empty(t, pending)

		_, err = env.svc.RetryPayout(ctx)
		require.ErrorIs(t, err, ErrNoPendingPayout)
		env.wallet.AssertNumberOfCalls(t, "Transfer", 3)
	})

	t.Run("restore", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.enter(t, "alice", "bob")
		env.startDraw(t, "req-1")

		restarted := newTestEnvWithRepo(t, env.repoManager, nil, *env.clock)
		info, err := restarted.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.DrawingPhase, info.Phase)
		require.Equal(t, "req-1", info.PendingRequestId)
		require.Equal(t, []string{"alice", "bob"}, mustParticipants(t, restarted.svc))
		require.Equal(t, []string{"req-1"}, restarted.oracle.resumed)

		restarted.wallet.On("Transfer", mock.Anything, "alice", 2*entranceFee).Return("payout-tx", nil).Once()
		err = restarted.svc.FulfillRandomWords(ctx, "req-1", []*big.Int{big.NewInt(4)})
		require.NoError(t, err)

		restarted = newTestEnvWithRepo(t, env.repoManager, nil, *env.clock)
		info, err = restarted.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.OpenPhase, info.Phase)
		require.Equal(t, "alice", info.RecentWinner)
		require.Empty(t, restarted.oracle.resumed)
	})

	t.Run("restart keeps pool funds and pending draw", func(t *testing.T) {
		repoManager := newRepoManager(t)
		clock := startTime
		restart := func() (*raffleService, ports.WalletService, *externaloracle.Oracle) {
			wallet := inmemorywallet.NewService()
			oracle := externaloracle.NewOracle()
			svc, err := newRaffleService(
				Config{EntranceFee: entranceFee, Interval: interval, Randomness: params},
				wallet, repoManager, oracle, nil, inmemorylivestore.NewLiveStore(), nil,
				func() time.Time { return clock },
			)
			require.NoError(t, err)
			return svc, wallet, oracle
		}

		svc, _, _ := restart()
		for _, participant := range []string{"alice", "bob"} {
			_, err := svc.EnterRaffle(ctx, participant, entranceFee)
			require.NoError(t, err)
		}
		clock = clock.Add(time.Duration(interval) * time.Second)
		requestId, err := svc.PerformUpkeep(ctx)
		require.NoError(t, err)

		svc, wallet, oracle := restart()
		balance, err := wallet.GetBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, 2*entranceFee, balance)

		pending := oracle.PendingRequests()
		require.Len(t, pending, 1)
		require.Equal(t, requestId, pending[0].Id)

		err = oracle.Fulfill(ctx, requestId, []*big.Int{big.NewInt(4)})
		require.NoError(t, err)
		require.Empty(t, oracle.PendingRequests())

		info, err := svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.OpenPhase, info.Phase)
		require.Equal(t, "alice", info.RecentWinner)

		balance, err = wallet.GetBalance(ctx)
		require.NoError(t, err)
		require.Zero(t, balance)

		// The new round holds no funds and no request.
		_, wallet, oracle = restart()
		balance, err = wallet.GetBalance(ctx)
		require.NoError(t, err)
		require.Zero(t, balance)
		require.Empty(t, oracle.PendingRequests())
	})

	t.Run("entry refunded when not stored", func(t *testing.T) {
		repoManager := newFaultyRepoManager(newRepoManager(t))
		env := newTestEnvWithRepo(t, repoManager, nil, startTime)
		env.enter(t, "alice")

		repoManager.failOn(func(events []domain.RoundEvent) bool {
			_, ok := events[0].(domain.RaffleEntered)
			return ok
		})
		env.wallet.On("Deposit", mock.Anything, "bob", entranceFee).Return("deposit-bob", nil).Once()
		env.wallet.On("Transfer", mock.Anything, "bob", entranceFee).Return("refund-bob", nil).Once()
		_, err := env.svc.EnterRaffle(ctx, "bob", entranceFee)
		require.EqualError(t, err, "failed to store entry: event store unavailable")
		env.wallet.AssertExpectations(t)

		info, err := env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, info.NumOfParticipants)
		require.Equal(t, entranceFee, info.Balance)
		require.Equal(t, []string{"alice"}, mustParticipants(t, env.svc))

		repoManager.failOn(nil)
		env.enter(t, "bob")
		require.Equal(t, []string{"alice", "bob"}, mustParticipants(t, env.svc))
	})

	t.Run("next round opened after store failure", func(t *testing.T) {
		repoManager := newFaultyRepoManager(newRepoManager(t))
		env := newTestEnvWithRepo(t, repoManager, nil, startTime)
		env.enter(t, "alice")
		env.startDraw(t, "req-1")

		drawRound, err := env.svc.GetCurrentRound(ctx)
		require.NoError(t, err)

		repoManager.failOn(func(events []domain.RoundEvent) bool {
			_, ok := events[0].(domain.RoundStarted)
			return ok
		})
		env.wallet.On("Transfer", mock.Anything, "alice", entranceFee).Return("payout-tx", nil).Once()
		err = env.svc.FulfillRandomWords(ctx, "req-1", []*big.Int{big.NewInt(7)})
		require.NoError(t, err)

		round, err := env.svc.GetCurrentRound(ctx)
		require.NoError(t, err)
		require.Equal(t, drawRound.Id, round.Id)
		require.True(t, round.IsEnded())

		_, err = env.svc.EnterRaffle(ctx, "bob", entranceFee)
		require.EqualError(t, err, "failed to store new round: event store unavailable")

		repoManager.failOn(nil)
		env.enter(t, "bob")

		info, err := env.svc.GetInfo(ctx)
		require.NoError(t, err)
		require.NotEqual(t, drawRound.Id, info.RoundId)
		require.Equal(t, domain.OpenPhase, info.Phase)
		require.Equal(t, 1, info.NumOfParticipants)
		require.Equal(t, env.clock.Unix(), info.LastRoundTimestamp)
		require.Equal(t, "alice", info.RecentWinner)
		env.wallet.AssertNumberOfCalls(t, "Deposit", 2)
		env.wallet.AssertNumberOfCalls(t, "Transfer", 1)
	})

	t.Run("events", func(t *testing.T) {
		messages := make(chan string, 16)
		notifier := &mockedNotifier{}
		notifier.On("Notify", mock.Anything, nil, mock.Anything).
			Run(func(args mock.Arguments) {
				messages <- args.String(2)
			}).
			Return(nil)

		env := newTestEnv(t, notifier)
		ch := env.svc.GetEventsChannel(ctx)
		require.IsType(t, domain.RoundStarted{}, <-ch)

		env.enter(t, "alice")
		require.IsType(t, domain.RaffleEntered{}, <-ch)

		env.startDraw(t, "req-1")
		require.IsType(t, domain.DrawStarted{}, <-ch)

		env.wallet.On("Transfer", mock.Anything, "alice", entranceFee).Return("payout-tx", nil).Once()
		err := env.svc.FulfillRandomWords(ctx, "req-1", []*big.Int{big.NewInt(1)})
		require.NoError(t, err)

		picked, ok := (<-ch).(domain.WinnerPicked)
		require.True(t, ok)
		require.Equal(t, "alice", picked.Winner)
		require.Equal(t, "payout-tx", picked.PayoutTxid)
		require.IsType(t, domain.RoundStarted{}, <-ch)

		expected := fmt.Sprintf(
			"*Winner* of round `%s` is `alice`\nPrize: %d\nTxid: `payout-tx`",
			picked.Id, entranceFee,
		)
		timeout := time.After(5 * time.Second)
		for {
			select {
			case msg := <-messages:
				if msg == expected {
					return
				}
			case <-timeout:
				t.Fatal("winner notification not sent")
			}
		}
	})

	t.Run("start", func(t *testing.T) {
		env := newTestEnv(t, nil)
		scheduler := &mockedScheduler{}
		scheduler.On("Start").Return()
		scheduler.On("ScheduleTask", int64(5), false, mock.Anything).Return(nil).Once()
		scheduler.On("ScheduleTask", int64(60), false, mock.Anything).Return(nil).Once()
		env.svc.scheduler = scheduler
		env.svc.upkeepCheckInterval = 5
		env.svc.payoutRetryInterval = 60

		require.NoError(t, env.svc.Start())
		scheduler.AssertExpectations(t)
	})
}

func mustParticipants(t *testing.T, svc Service) []string {
	participants, err := svc.GetParticipants(ctx)
	require.NoError(t, err)
	return participants
}
