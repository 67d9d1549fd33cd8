package domain

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	UndefinedPhase RafflePhase = iota
	OpenPhase
	DrawingPhase
)

type RafflePhase int

func (p RafflePhase) String() string {
	switch p {
	case OpenPhase:
		return "OPEN"
	case DrawingPhase:
		return "DRAWING"
	default:
		return "UNDEFINED"
	}
}

type Stage struct {
	Code  RafflePhase
	Ended bool
}

type Round struct {
	Id                string
	StartingTimestamp int64
	EndingTimestamp   int64
	Stage             Stage
	EntranceFee       uint64
	Interval          int64
	Entries           EntryLedger
	RequestId         string
	DrawTimestamp     int64
	RandomValue       string
	WinnerIndex       int
	Winner            string
	NumOfEntries      int
	PayoutAmount      uint64
	PayoutTxid        string
	Version           uint
	changes           []RoundEvent
}

func NewRound(entranceFee uint64, interval int64) *Round {
	return &Round{
		Id:          uuid.New().String(),
		EntranceFee: entranceFee,
		Interval:    interval,
		Entries:     EntryLedger{Participants: make([]string, 0)},
		WinnerIndex: -1,
		changes:     make([]RoundEvent, 0),
	}
}

func NewRoundFromEvents(events []RoundEvent) *Round {
	r := &Round{WinnerIndex: -1}

	for _, event := range events {
		r.On(event, true)
	}

	r.changes = append([]RoundEvent{}, events...)

	return r
}

func (r *Round) Events() []RoundEvent {
	return r.changes
}

func (r *Round) On(event RoundEvent, replayed bool) {
	switch e := event.(type) {
	case RoundStarted:
		r.Stage.Code = OpenPhase
		r.Id = e.Id
		r.EntranceFee = e.EntranceFee
		r.Interval = e.Interval
		r.StartingTimestamp = e.Timestamp
		r.Entries.reset()
	case RaffleEntered:
		r.Entries.add(e.Participant, e.Amount)
	case DrawStarted:
		r.Stage.Code = DrawingPhase
		r.RequestId = e.RequestId
		r.DrawTimestamp = e.Timestamp
	case WinnerPicked:
		r.Stage.Ended = true
		r.RandomValue = e.RandomValue
		r.WinnerIndex = e.WinnerIndex
		r.Winner = e.Winner
		r.NumOfEntries = e.NumOfEntries
		r.PayoutAmount = e.Amount
		r.PayoutTxid = e.PayoutTxid
		r.EndingTimestamp = e.Timestamp
		r.Entries.reset()
	}

	if replayed {
		r.Version++
	}
}

// Start opens the round for entries. The given timestamp becomes the start
// of the round interval.
func (r *Round) Start(timestamp int64) ([]RoundEvent, error) {
	empty := Stage{}
	if r.Stage != empty {
		return nil, fmt.Errorf("not in a valid stage to start the round")
	}
	if r.Interval <= 0 {
		return nil, fmt.Errorf("round interval must be positive")
	}

	event := RoundStarted{
		Id:          r.Id,
		EntranceFee: r.EntranceFee,
		Interval:    r.Interval,
		Timestamp:   timestamp,
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// Enter appends the participant to the round entries and credits the whole
// amount to the pool. Overpayments are kept.
func (r *Round) Enter(participant string, amount uint64) ([]RoundEvent, error) {
	if !r.IsOpen() {
		return nil, ErrRoundNotOpen
	}
	if amount < r.EntranceFee {
		return nil, ErrInsufficientFee
	}
	if len(participant) <= 0 {
		return nil, fmt.Errorf("missing participant")
	}

	event := RaffleEntered{
		Id:          r.Id,
		Participant: participant,
		Amount:      amount,
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// StartDraw closes the round to new entries and records the pending
// randomness request. It fails if the draw gate does not pass at now.
func (r *Round) StartDraw(requestId string, now int64) ([]RoundEvent, error) {
	if err := r.CheckUpkeep(now).Err(); err != nil {
		return nil, err
	}
	if len(requestId) <= 0 {
		return nil, fmt.Errorf("missing randomness request id")
	}

	event := DrawStarted{
		Id:        r.Id,
		RequestId: requestId,
		Timestamp: now,
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// SelectWinner computes the winner for the given fulfillment without
// changing the round.
func (r *Round) SelectWinner(
	requestId string, randomValue *big.Int,
) (*WinnerSelection, error) {
	if !r.IsDrawing() || requestId != r.RequestId {
		return nil, ErrUnknownRequest
	}

	index, winner, err := SelectWinner(randomValue, r.Entries.Participants)
	if err != nil {
		return nil, err
	}

	return &WinnerSelection{
		RequestId:    requestId,
		RandomValue:  new(big.Int).Set(randomValue),
		WinnerIndex:  index,
		Winner:       winner,
		NumOfEntries: r.Entries.Len(),
		Amount:       r.Entries.Balance,
	}, nil
}

// PickWinner ends the round once the pool has been transferred to the
// selected winner. Entries are cleared in the same step.
func (r *Round) PickWinner(
	selection WinnerSelection, payoutTxid string, timestamp int64,
) ([]RoundEvent, error) {
	if !r.IsDrawing() || selection.RequestId != r.RequestId {
		return nil, ErrUnknownRequest
	}
	if selection.RandomValue == nil {
		return nil, fmt.Errorf("missing random value")
	}
	if len(payoutTxid) <= 0 {
		return nil, fmt.Errorf("missing payout txid")
	}

	event := WinnerPicked{
		Id:           r.Id,
		RequestId:    selection.RequestId,
		RandomValue:  selection.RandomValue.String(),
		WinnerIndex:  selection.WinnerIndex,
		Winner:       selection.Winner,
		NumOfEntries: selection.NumOfEntries,
		Amount:       selection.Amount,
		PayoutTxid:   payoutTxid,
		Timestamp:    timestamp,
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

func (r *Round) IsStarted() bool {
	return r.Stage.Code != UndefinedPhase
}

func (r *Round) IsOpen() bool {
	return r.Stage.Code == OpenPhase && !r.Stage.Ended
}

func (r *Round) IsDrawing() bool {
	return r.Stage.Code == DrawingPhase && !r.Stage.Ended
}

func (r *Round) IsEnded() bool {
	return r.Stage.Ended
}

// Phase is the raffle phase exposed to callers. An ended round reports
// OPEN since the raffle has already moved on to the next round.
func (r *Round) Phase() RafflePhase {
	if r.Stage.Ended {
		return OpenPhase
	}
	return r.Stage.Code
}

// IntervalElapsed is true once at least Interval seconds have passed since
// the round started.
func (r *Round) IntervalElapsed(now int64) bool {
	return now-r.StartingTimestamp >= r.Interval
}

func (r *Round) PendingRequestId() string {
	if !r.IsDrawing() {
		return ""
	}
	return r.RequestId
}

func (r *Round) NumOfParticipants() int {
	return r.Entries.Len()
}

func (r *Round) Participant(index int) (string, error) {
	return r.Entries.At(index)
}

func (r *Round) Participants() []string {
	return r.Entries.List()
}

func (r *Round) Balance() uint64 {
	return r.Entries.Balance
}

func (r *Round) raise(event RoundEvent) {
	if r.changes == nil {
		r.changes = make([]RoundEvent, 0)
	}
	r.changes = append(r.changes, event)
	r.On(event, false)
}
