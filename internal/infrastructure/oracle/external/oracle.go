package externaloracle

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Request is a randomness request waiting for an off-box provider.
type Request struct {
	Id        string
	NumWords  uint32
	KeyHash   string
	CreatedAt int64
}

// Oracle hands out request ids and waits for an external provider to push
// the random words through Fulfill.
type Oracle struct {
	lock    sync.Mutex
	handler ports.FulfillmentHandler
	pending map[string]Request
}

func NewOracle() *Oracle {
	return &Oracle{pending: make(map[string]Request)}
}

func (o *Oracle) RegisterFulfillmentHandler(handler ports.FulfillmentHandler) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.handler = handler
}

func (o *Oracle) RequestRandomWords(
	_ context.Context, req ports.RandomnessRequest,
) (string, error) {
	request := newRequest(uuid.New().String(), req)

	o.lock.Lock()
	o.pending[request.Id] = request
	o.lock.Unlock()

	log.Infof(
		"external oracle: waiting for %d random words for request %s",
		request.NumWords, request.Id,
	)
	return request.Id, nil
}

func (o *Oracle) ResumeRequest(
	_ context.Context, requestId string, req ports.RandomnessRequest,
) error {
	if len(requestId) <= 0 {
		return fmt.Errorf("missing request id")
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	if _, ok := o.pending[requestId]; ok {
		return nil
	}
	o.pending[requestId] = newRequest(requestId, req)

	log.Infof("external oracle: resumed request %s", requestId)
	return nil
}

// PendingRequests returns the requests not yet fulfilled, oldest first.
func (o *Oracle) PendingRequests() []Request {
	o.lock.Lock()
	defer o.lock.Unlock()

	requests := make([]Request, 0, len(o.pending))
	for _, req := range o.pending {
		requests = append(requests, req)
	}
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt < requests[j].CreatedAt
	})
	return requests
}

// Fulfill delivers the random words of a pending request to the registered
// handler. The request stays pending if the handler fails so that the
// provider can redeliver.
func (o *Oracle) Fulfill(ctx context.Context, requestId string, words []*big.Int) error {
	o.lock.Lock()
	req, ok := o.pending[requestId]
	handler := o.handler
	o.lock.Unlock()

	if !ok {
		return fmt.Errorf("%w %s", domain.ErrUnknownRequest, requestId)
	}
	if len(words) < int(req.NumWords) {
		return fmt.Errorf(
			"expected %d random words for request %s, got %d", req.NumWords, requestId, len(words),
		)
	}
	if handler == nil {
		return fmt.Errorf("no fulfillment handler registered")
	}

	if err := handler(ctx, requestId, words); err != nil {
		return err
	}

	o.lock.Lock()
	delete(o.pending, requestId)
	o.lock.Unlock()
	return nil
}

func (o *Oracle) Close() {}

func newRequest(id string, req ports.RandomnessRequest) Request {
	numWords := req.NumWords
	if numWords == 0 {
		numWords = 1
	}
	return Request{
		Id:        id,
		NumWords:  numWords,
		KeyHash:   req.KeyHash,
		CreatedAt: time.Now().Unix(),
	}
}
