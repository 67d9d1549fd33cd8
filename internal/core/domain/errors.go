package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFee      = errors.New("not enough value sent to enter the raffle")
	ErrRoundNotOpen         = errors.New("raffle round is not open")
	ErrUpkeepNotNeeded      = errors.New("upkeep not needed")
	ErrUnknownRequest       = errors.New("unknown randomness request")
	ErrPayoutTransferFailed = errors.New("payout transfer failed")
	ErrIndexOutOfRange      = errors.New("participant index out of range")
)

// UpkeepNotNeededError carries the raffle state observed when a draw was
// refused. It matches ErrUpkeepNotNeeded with errors.Is.
type UpkeepNotNeededError struct {
	Balance           uint64
	NumOfParticipants int
	Phase             RafflePhase
}

func (e UpkeepNotNeededError) Error() string {
	return fmt.Sprintf(
		"%s (balance: %d, participants: %d, phase: %s)",
		ErrUpkeepNotNeeded, e.Balance, e.NumOfParticipants, e.Phase,
	)
}

func (e UpkeepNotNeededError) Is(target error) bool {
	return target == ErrUpkeepNotNeeded
}
