package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/sasha-s/go-deadlock"
	log "github.com/sirupsen/logrus"
)

const eventsChannelSize = 128

type raffleService struct {
	// services
	wallet      ports.WalletService
	repoManager ports.RepoManager
	scheduler   ports.SchedulerService
	liveStore   ports.LiveStore
	notifier    ports.Notifier
	randomness  *randomnessBridge
	payouts     *payoutExecutor

	// config
	entranceFee         uint64
	interval            int64
	upkeepCheckInterval int64
	payoutRetryInterval int64

	lock         deadlock.Mutex
	recentWinner string
	eventsCh     chan domain.RoundEvent
	now          func() time.Time
}

func NewService(
	config Config,
	walletSvc ports.WalletService, repoManager ports.RepoManager,
	oracle ports.RandomnessOracle, scheduler ports.SchedulerService,
	liveStore ports.LiveStore, notifier ports.Notifier,
) (Service, error) {
	return newRaffleService(
		config, walletSvc, repoManager, oracle, scheduler, liveStore, notifier, time.Now,
	)
}

func newRaffleService(
	config Config,
	walletSvc ports.WalletService, repoManager ports.RepoManager,
	oracle ports.RandomnessOracle, scheduler ports.SchedulerService,
	liveStore ports.LiveStore, notifier ports.Notifier,
	now func() time.Time,
) (*raffleService, error) {
	if config.Interval < 1 {
		return nil, fmt.Errorf("invalid round interval %d, must be at least 1 second", config.Interval)
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("missing wallet service")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if oracle == nil {
		return nil, fmt.Errorf("missing randomness oracle")
	}
	if liveStore == nil {
		return nil, fmt.Errorf("missing live store")
	}

	svc := &raffleService{
		wallet:              walletSvc,
		repoManager:         repoManager,
		scheduler:           scheduler,
		liveStore:           liveStore,
		notifier:            notifier,
		randomness:          newRandomnessBridge(oracle, config.Randomness),
		payouts:             newPayoutExecutor(walletSvc, repoManager.Payouts()),
		entranceFee:         config.EntranceFee,
		interval:            config.Interval,
		upkeepCheckInterval: config.UpkeepCheckInterval,
		payoutRetryInterval: config.PayoutRetryInterval,
		eventsCh:            make(chan domain.RoundEvent, eventsChannelSize),
		now:                 now,
	}

	repoManager.Events().RegisterEventsHandler(
		func(round *domain.Round) {
			go func() {
				defer func() {
					if r := recover(); r != nil {
						log.Errorf("recovered from panic in notifyEvents: %v", r)
					}
				}()

				svc.notifyEvents(round)
			}()
		},
	)

	// A resumed request may be fulfilled as soon as the round is restored.
	svc.randomness.listen(svc.onFulfillment)

	if err := svc.restoreCurrentRound(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to restore current round: %s", err)
	}
	return svc, nil
}

func (s *raffleService) Start() error {
	if s.scheduler == nil {
		log.Debug("no scheduler configured, upkeep must be triggered externally")
		return nil
	}

	log.Debug("starting scheduler service")
	s.scheduler.Start()

	if s.upkeepCheckInterval > 0 {
		if err := s.scheduler.ScheduleTask(
			s.upkeepCheckInterval, false, s.upkeepTask,
		); err != nil {
			return fmt.Errorf("failed to schedule upkeep: %s", err)
		}
	}
	if s.payoutRetryInterval > 0 {
		if err := s.scheduler.ScheduleTask(
			s.payoutRetryInterval, false, s.payoutRetryTask,
		); err != nil {
			return fmt.Errorf("failed to schedule payout retries: %s", err)
		}
	}

	log.Debug("started app service")
	return nil
}

func (s *raffleService) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		log.Debug("stopped scheduler")
	}
	s.randomness.close()
	log.Debug("closed connection to randomness oracle")
	s.wallet.Close()
	log.Debug("closed connection to wallet")
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

func (s *raffleService) EnterRaffle(
	ctx context.Context, participant string, amount uint64,
) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	round, err := s.openRound(ctx)
	if err != nil {
		return "", err
	}

	if _, err := round.Enter(participant, amount); err != nil {
		return "", err
	}

	txid, err := s.wallet.Deposit(ctx, participant, amount)
	if err != nil {
		return "", fmt.Errorf("failed to deposit entrance fee: %s", err)
	}

	if err := s.saveEvents(ctx, round); err != nil {
		log.WithError(err).Errorf(
			"failed to store entry of %s with deposit %s, refunding", participant, txid,
		)
		if _, rerr := s.wallet.Transfer(ctx, participant, amount); rerr != nil {
			log.WithError(rerr).Errorf(
				"failed to refund %d to %s for deposit %s", amount, participant, txid,
			)
		}
		return "", fmt.Errorf("failed to store entry: %s", err)
	}

	log.Debugf("%s entered round %s with %d", participant, round.Id, amount)
	return txid, nil
}

func (s *raffleService) CheckUpkeep(_ context.Context) (*domain.UpkeepStatus, error) {
	round, err := s.currentRound()
	if err != nil {
		return nil, err
	}
	status := round.CheckUpkeep(s.now().Unix())
	return &status, nil
}

func (s *raffleService) PerformUpkeep(ctx context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	round, err := s.openRound(ctx)
	if err != nil {
		return "", err
	}

	now := s.now().Unix()
	if err := round.CheckUpkeep(now).Err(); err != nil {
		return "", err
	}

	requestId, err := s.randomness.request(ctx)
	if err != nil {
		return "", err
	}

	if _, err := round.StartDraw(requestId, now); err != nil {
		return "", err
	}

	if err := s.saveEvents(ctx, round); err != nil {
		return "", err
	}

	log.Infof(
		"started draw for round %s with %d participants, request id %s",
		round.Id, round.NumOfParticipants(), requestId,
	)
	return requestId, nil
}

func (s *raffleService) FulfillRandomWords(
	ctx context.Context, requestId string, randomWords []*big.Int,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(randomWords) <= 0 {
		return ErrMissingWords
	}

	round, err := s.currentRound()
	if err != nil {
		return err
	}
	if round.PendingRequestId() != requestId {
		return s.unknownRequest(ctx, requestId)
	}

	payout, err := s.repoManager.Payouts().GetPayout(ctx, round.Id)
	if err != nil {
		return err
	}

	// A redelivered fulfillment reuses the selection stored with the first
	// delivery.
	if payout == nil || payout.RequestId != requestId {
		selection, err := round.SelectWinner(requestId, randomWords[0])
		if err != nil {
			return err
		}
		payout = domain.NewPayout(round.Id, *selection, s.now().Unix())
		if err := s.repoManager.Payouts().AddOrUpdatePayout(ctx, *payout); err != nil {
			return fmt.Errorf("failed to store payout: %s", err)
		}
	}

	_, err = s.settle(ctx, round, payout)
	return err
}

func (s *raffleService) RetryPayout(ctx context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	round, err := s.currentRound()
	if err != nil {
		return "", err
	}
	if !round.IsDrawing() {
		return "", ErrNoPendingPayout
	}

	payout, err := s.repoManager.Payouts().GetPayout(ctx, round.Id)
	if err != nil {
		return "", err
	}
	if payout == nil || payout.RequestId != round.RequestId {
		return "", ErrNoPendingPayout
	}

	log.Debugf("retrying payout for round %s, attempt %d", round.Id, payout.Attempts+1)
	return s.settle(ctx, round, payout)
}

func (s *raffleService) GetInfo(ctx context.Context) (*RaffleInfo, error) {
	round, err := s.currentRound()
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	recentWinner := s.recentWinner
	s.lock.Unlock()

	params := s.randomness.params
	return &RaffleInfo{
		RoundId:              round.Id,
		EntranceFee:          round.EntranceFee,
		Interval:             round.Interval,
		Phase:                round.Phase(),
		NumOfParticipants:    round.NumOfParticipants(),
		Balance:              round.Balance(),
		LastRoundTimestamp:   round.StartingTimestamp,
		NextDrawTimestamp:    round.StartingTimestamp + round.Interval,
		RecentWinner:         recentWinner,
		PendingRequestId:     round.PendingRequestId(),
		KeyHash:              params.KeyHash,
		SubscriptionId:       params.SubscriptionId,
		RequestConfirmations: params.RequestConfirmations,
		CallbackGasLimit:     params.CallbackGasLimit,
		NumWords:             params.NumWords,
	}, nil
}

func (s *raffleService) GetParticipant(_ context.Context, index int) (string, error) {
	round, err := s.currentRound()
	if err != nil {
		return "", err
	}
	return round.Participant(index)
}

func (s *raffleService) GetParticipants(_ context.Context) ([]string, error) {
	round, err := s.currentRound()
	if err != nil {
		return nil, err
	}
	return round.Participants(), nil
}

func (s *raffleService) GetCurrentRound(_ context.Context) (*domain.Round, error) {
	return s.currentRound()
}

func (s *raffleService) GetRoundById(ctx context.Context, id string) (*domain.Round, error) {
	round, err := s.repoManager.Rounds().GetRoundWithId(ctx, id)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, errRoundNotFound{id}
	}
	return round, nil
}

func (s *raffleService) GetRoundsHistory(
	ctx context.Context, startedAfter, startedBefore int64,
) ([]domain.Round, error) {
	return s.repoManager.Rounds().GetEndedRounds(ctx, startedAfter, startedBefore)
}

func (s *raffleService) GetPendingPayouts(ctx context.Context) ([]domain.Payout, error) {
	return s.repoManager.Payouts().GetPendingPayouts(ctx)
}

func (s *raffleService) GetWalletBalance(ctx context.Context) (uint64, error) {
	return s.wallet.GetBalance(ctx)
}

func (s *raffleService) GetWalletStatus(ctx context.Context) (ports.WalletStatus, error) {
	return s.wallet.Status(ctx)
}

func (s *raffleService) GetEventsChannel(_ context.Context) <-chan domain.RoundEvent {
	return s.eventsCh
}

// settle pays the winner out and, on success, ends the round and opens the
// next one starting at the same timestamp. The round is left untouched if
// the transfer fails.
func (s *raffleService) settle(
	ctx context.Context, round *domain.Round, payout *domain.Payout,
) (string, error) {
	selection, err := payout.Selection()
	if err != nil {
		return "", err
	}

	now := s.now().Unix()
	txid, err := s.payouts.execute(ctx, payout, now)
	if err != nil {
		log.WithError(err).Errorf(
			"failed to pay %d to %s for round %s (attempt %d)",
			payout.Amount, payout.Winner, round.Id, payout.Attempts,
		)
		return "", err
	}

	if _, err := round.PickWinner(*selection, txid, now); err != nil {
		return "", err
	}
	if err := s.saveEvents(ctx, round); err != nil {
		return "", err
	}
	s.recentWinner = payout.Winner

	log.Infof(
		"round %s won by %s with %d in tx %s",
		round.Id, payout.Winner, payout.Amount, txid,
	)

	// The payout is done at this point. If the next round cannot be stored
	// it is opened by the next write through openRound.
	if err := s.startRound(ctx, now); err != nil {
		log.WithError(err).Warnf("failed to open round after %s", round.Id)
	}
	return txid, nil
}

func (s *raffleService) startRound(ctx context.Context, timestamp int64) error {
	round := domain.NewRound(s.entranceFee, s.interval)
	if _, err := round.Start(timestamp); err != nil {
		return err
	}
	if err := s.saveEvents(ctx, round); err != nil {
		return fmt.Errorf("failed to store new round: %s", err)
	}

	log.Debugf("started round %s", round.Id)
	return nil
}

func (s *raffleService) restoreCurrentRound(ctx context.Context) error {
	lastEnded, err := s.repoManager.Rounds().GetLastEndedRound(ctx)
	if err != nil {
		return err
	}
	if lastEnded != nil {
		s.recentWinner = lastEnded.Winner
	}

	current, err := s.repoManager.Rounds().GetCurrentRound(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		return s.startRound(ctx, s.now().Unix())
	}

	round, err := s.repoManager.Events().Load(ctx, current.Id)
	if err != nil {
		return err
	}
	if err := s.liveStore.CurrentRound().Upsert(func(_ *domain.Round) *domain.Round {
		return round
	}); err != nil {
		return err
	}

	if err := s.restoreWalletFunds(ctx, round); err != nil {
		return err
	}
	if round.IsDrawing() {
		if err := s.randomness.resume(ctx, round.RequestId); err != nil {
			return err
		}
	}

	log.Infof("restored round %s in phase %s", round.Id, round.Stage.Code)
	return nil
}

// restoreWalletFunds credits the pool of the restored round back to wallets
// that do not keep their funds across restarts.
func (s *raffleService) restoreWalletFunds(ctx context.Context, round *domain.Round) error {
	restorer, ok := s.wallet.(ports.WalletRestorer)
	if !ok {
		return nil
	}

	amount := round.Balance()
	if round.IsDrawing() {
		payout, err := s.repoManager.Payouts().GetPayout(ctx, round.Id)
		if err != nil {
			return err
		}
		if payout != nil && payout.Settled && payout.RequestId == round.RequestId {
			amount = 0
		}
	}
	if amount == 0 {
		return nil
	}

	txid, err := restorer.Restore(ctx, round.Id, amount)
	if err != nil {
		return fmt.Errorf("failed to restore wallet funds: %s", err)
	}
	if len(txid) > 0 {
		log.Infof("restored %d of round %s to wallet in tx %s", amount, round.Id, txid)
	}
	return nil
}

// openRound returns the live round, opening its successor first if the
// round was ended but the next one could not be stored. Must be called
// with the lock held.
func (s *raffleService) openRound(ctx context.Context) (*domain.Round, error) {
	round, err := s.currentRound()
	if err != nil {
		return nil, err
	}
	if !round.IsEnded() {
		return round, nil
	}

	if err := s.startRound(ctx, round.EndingTimestamp); err != nil {
		return nil, err
	}
	return s.currentRound()
}

func (s *raffleService) unknownRequest(ctx context.Context, requestId string) error {
	if len(requestId) <= 0 {
		return domain.ErrUnknownRequest
	}

	round, err := s.repoManager.Rounds().GetRoundWithRequestId(ctx, requestId)
	if err != nil {
		log.WithError(err).Warnf("failed to look up round of request %s", requestId)
		return domain.ErrUnknownRequest
	}
	if round != nil && round.IsEnded() {
		return errRequestFulfilled{requestId, round.Id}
	}
	return domain.ErrUnknownRequest
}

func (s *raffleService) currentRound() (*domain.Round, error) {
	round := s.liveStore.CurrentRound().Get()
	if round == nil {
		return nil, fmt.Errorf("no round in progress")
	}
	return round.Clone(), nil
}

func (s *raffleService) saveEvents(ctx context.Context, round *domain.Round) error {
	events := round.Events()
	if len(events) <= 0 {
		return nil
	}

	updated, err := s.repoManager.Events().Save(ctx, round.Id, events...)
	if err != nil {
		return err
	}
	if err := s.repoManager.Rounds().AddOrUpdateRound(ctx, *updated); err != nil {
		return err
	}
	if err := s.liveStore.CurrentRound().Upsert(func(_ *domain.Round) *domain.Round {
		return updated
	}); err != nil {
		return err
	}

	s.propagateEvents(events)
	return nil
}

func (s *raffleService) propagateEvents(events []domain.RoundEvent) {
	for _, event := range events {
		select {
		case s.eventsCh <- event:
		default:
			log.Warnf("events channel is full, dropping %s event", event.GetType())
		}
	}
}

func (s *raffleService) notifyEvents(round *domain.Round) {
	if s.notifier == nil || len(round.Events()) <= 0 {
		return
	}

	var message string
	lastEvent := round.Events()[len(round.Events())-1]
	switch e := lastEvent.(type) {
	case domain.RoundStarted:
		message = fmt.Sprintf(
			"*New raffle round* `%s`\nEntrance fee: %d\nDraw after: %d seconds",
			e.Id, e.EntranceFee, e.Interval,
		)
	case domain.DrawStarted:
		message = fmt.Sprintf(
			"*Drawing* round `%s` among %d entries", e.Id, round.NumOfParticipants(),
		)
	case domain.WinnerPicked:
		message = fmt.Sprintf(
			"*Winner* of round `%s` is `%s`\nPrize: %d\nTxid: `%s`",
			e.Id, e.Winner, e.Amount, e.PayoutTxid,
		)
	default:
		return
	}

	if err := s.notifier.Notify(context.Background(), nil, message); err != nil {
		log.WithError(err).Warn("failed to send notification")
	}
}

func (s *raffleService) onFulfillment(
	ctx context.Context, requestId string, randomWords []*big.Int,
) error {
	if err := s.FulfillRandomWords(ctx, requestId, randomWords); err != nil {
		log.WithError(err).Warnf("failed to fulfill randomness request %s", requestId)
		return err
	}
	return nil
}

func (s *raffleService) upkeepTask() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic in upkeep: %v", r)
		}
	}()

	if _, err := s.PerformUpkeep(context.Background()); err != nil {
		if errors.Is(err, domain.ErrUpkeepNotNeeded) {
			log.Tracef("skipping upkeep: %s", err)
			return
		}
		log.WithError(err).Warn("failed to perform upkeep")
	}
}

func (s *raffleService) payoutRetryTask() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic in payout retry: %v", r)
		}
	}()

	if _, err := s.RetryPayout(context.Background()); err != nil {
		if errors.Is(err, ErrNoPendingPayout) {
			return
		}
		log.WithError(err).Warn("failed to retry payout")
	}
}
