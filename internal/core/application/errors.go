package application

import (
	"errors"
	"fmt"

	"github.com/ark-network/raffle/internal/core/domain"
)

var (
	ErrNoPendingPayout = errors.New("no pending payout")
	ErrMissingWords    = errors.New("missing random words")
	ErrRoundNotFound   = errors.New("round not found")
)

type errRoundNotFound struct {
	id string
}

func (e errRoundNotFound) Error() string {
	return fmt.Sprintf("round %s not found", e.id)
}

func (e errRoundNotFound) Is(target error) bool {
	return target == ErrRoundNotFound
}

// errRequestFulfilled is returned for a request that already settled a round.
type errRequestFulfilled struct {
	requestId string
	roundId   string
}

func (e errRequestFulfilled) Error() string {
	return fmt.Sprintf(
		"%s: request %s already fulfilled for round %s",
		domain.ErrUnknownRequest, e.requestId, e.roundId,
	)
}

func (e errRequestFulfilled) Is(target error) bool {
	return target == domain.ErrUnknownRequest
}
