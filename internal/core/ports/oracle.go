package ports

import (
	"context"
	"math/big"
)

type RandomnessRequest struct {
	KeyHash              string
	SubscriptionId       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
}

// FulfillmentHandler is invoked by the oracle with the random words for a
// request it accepted earlier.
type FulfillmentHandler func(ctx context.Context, requestId string, randomWords []*big.Int) error

type RandomnessOracle interface {
	RequestRandomWords(ctx context.Context, req RandomnessRequest) (string, error)
	// ResumeRequest makes the oracle honor a request it accepted before a
	// restart.
	ResumeRequest(ctx context.Context, requestId string, req RandomnessRequest) error
	RegisterFulfillmentHandler(handler FulfillmentHandler)
	Close()
}
