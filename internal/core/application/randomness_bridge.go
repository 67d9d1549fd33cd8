package application

import (
	"context"
	"fmt"

	"github.com/ark-network/raffle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// randomnessBridge issues randomness requests with the configured
// parameters and routes fulfillments back to the service.
type randomnessBridge struct {
	oracle ports.RandomnessOracle
	params ports.RandomnessRequest
}

func newRandomnessBridge(
	oracle ports.RandomnessOracle, params ports.RandomnessRequest,
) *randomnessBridge {
	if params.NumWords == 0 {
		params.NumWords = 1
	}
	return &randomnessBridge{oracle, params}
}

func (b *randomnessBridge) request(ctx context.Context) (string, error) {
	requestId, err := b.oracle.RequestRandomWords(ctx, b.params)
	if err != nil {
		return "", fmt.Errorf("failed to request random words: %s", err)
	}
	if len(requestId) <= 0 {
		return "", fmt.Errorf("oracle returned an empty request id")
	}
	log.Debugf("requested %d random words with id %s", b.params.NumWords, requestId)
	return requestId, nil
}

func (b *randomnessBridge) resume(ctx context.Context, requestId string) error {
	if err := b.oracle.ResumeRequest(ctx, requestId, b.params); err != nil {
		return fmt.Errorf("failed to resume randomness request %s: %s", requestId, err)
	}
	log.Debugf("resumed randomness request %s", requestId)
	return nil
}

func (b *randomnessBridge) listen(handler ports.FulfillmentHandler) {
	b.oracle.RegisterFulfillmentHandler(handler)
}

func (b *randomnessBridge) close() {
	b.oracle.Close()
}
