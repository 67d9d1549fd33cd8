// Package vrforacle implements a local verifiable randomness oracle. Every
// request is answered with the BLS signature of its seed, so anyone holding
// the oracle public key can check that the delivered words were not picked
// by the operator.
package vrforacle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/util/random"
)

var suite = pairing.NewSuiteBn256()

// Proof lets a third party verify the words delivered for a request.
type Proof struct {
	RequestId string
	NumWords  uint32
	Seed      []byte
	Signature []byte
}

type Oracle struct {
	privkey kyber.Scalar
	pubkey  kyber.Point
	delay   time.Duration

	lock    sync.RWMutex
	handler ports.FulfillmentHandler
	proofs  map[string]Proof
	timers  map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

// NewOracle returns an oracle that fulfills every request after the given
// delay. An empty key generates a fresh keypair.
func NewOracle(privkeyHex string, delay time.Duration) (*Oracle, error) {
	var privkey kyber.Scalar
	var pubkey kyber.Point
	if len(privkeyHex) > 0 {
		buf, err := hex.DecodeString(privkeyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid oracle private key: %s", err)
		}
		privkey = suite.G2().Scalar()
		if err := privkey.UnmarshalBinary(buf); err != nil {
			return nil, fmt.Errorf("invalid oracle private key: %s", err)
		}
		pubkey = suite.G2().Point().Mul(privkey, nil)
	} else {
		privkey, pubkey = bls.NewKeyPair(suite, random.New())
	}

	return &Oracle{
		privkey: privkey,
		pubkey:  pubkey,
		delay:   delay,
		proofs:  make(map[string]Proof),
		timers:  make(map[string]*time.Timer),
	}, nil
}

func (o *Oracle) PublicKey() kyber.Point {
	return o.pubkey
}

func (o *Oracle) RegisterFulfillmentHandler(handler ports.FulfillmentHandler) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.handler = handler
}

func (o *Oracle) RequestRandomWords(
	_ context.Context, req ports.RandomnessRequest,
) (string, error) {
	requestId := uuid.New().String()
	if err := o.schedule(requestId, req); err != nil {
		return "", err
	}

	log.Debugf("vrf oracle: accepted request %s for %d words", requestId, req.NumWords)
	return requestId, nil
}

// ResumeRequest signs the seed derived from the given request id again and
// schedules its fulfillment. The signature is deterministic so the resumed
// request yields the same words it would have before the restart.
func (o *Oracle) ResumeRequest(
	_ context.Context, requestId string, req ports.RandomnessRequest,
) error {
	if len(requestId) <= 0 {
		return fmt.Errorf("missing request id")
	}

	o.lock.RLock()
	_, scheduled := o.timers[requestId]
	o.lock.RUnlock()
	if scheduled {
		return nil
	}

	if err := o.schedule(requestId, req); err != nil {
		return err
	}

	log.Debugf("vrf oracle: resumed request %s", requestId)
	return nil
}

// GetProof returns the proof for a request issued by this oracle.
func (o *Oracle) GetProof(requestId string) (*Proof, bool) {
	o.lock.RLock()
	defer o.lock.RUnlock()
	proof, ok := o.proofs[requestId]
	if !ok {
		return nil, false
	}
	return &proof, true
}

func (o *Oracle) Close() {
	o.lock.Lock()
	o.closed = true
	for id, timer := range o.timers {
		if timer.Stop() {
			o.wg.Done()
		}
		delete(o.timers, id)
	}
	o.lock.Unlock()

	o.wg.Wait()
}

func (o *Oracle) schedule(requestId string, req ports.RandomnessRequest) error {
	numWords := req.NumWords
	if numWords == 0 {
		numWords = 1
	}

	seed := makeSeed(requestId, req)
	sig, err := bls.Sign(suite, o.privkey, seed)
	if err != nil {
		return fmt.Errorf("failed to sign seed: %s", err)
	}
	words := deriveWords(sig, numWords)

	o.lock.Lock()
	defer o.lock.Unlock()

	if o.closed {
		return fmt.Errorf("oracle is closed")
	}

	o.proofs[requestId] = Proof{requestId, numWords, seed, sig}
	o.wg.Add(1)
	o.timers[requestId] = time.AfterFunc(o.delay, func() {
		defer o.wg.Done()
		o.fulfill(requestId, words)
	})
	return nil
}

func (o *Oracle) fulfill(requestId string, words []*big.Int) {
	o.lock.Lock()
	delete(o.timers, requestId)
	handler := o.handler
	o.lock.Unlock()

	if handler == nil {
		log.Warnf("vrf oracle: no handler registered, dropping fulfillment of %s", requestId)
		return
	}

	if err := handler(context.Background(), requestId, words); err != nil {
		log.WithError(err).Warnf("vrf oracle: fulfillment of request %s failed", requestId)
		return
	}
	log.Debugf("vrf oracle: fulfilled request %s", requestId)
}

// Verify checks the proof against the oracle public key and returns the
// random words it commits to.
func Verify(pubkey kyber.Point, proof Proof, numWords uint32) ([]*big.Int, error) {
	if err := bls.Verify(suite, pubkey, proof.Seed, proof.Signature); err != nil {
		return nil, fmt.Errorf("invalid proof for request %s: %s", proof.RequestId, err)
	}
	if numWords == 0 {
		numWords = 1
	}
	return deriveWords(proof.Signature, numWords), nil
}

func makeSeed(requestId string, req ports.RandomnessRequest) []byte {
	h := sha256.New()
	h.Write([]byte(requestId))
	h.Write([]byte(req.KeyHash))
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, req.SubscriptionId)
	h.Write(b)
	return h.Sum(nil)
}

func deriveWords(sig []byte, numWords uint32) []*big.Int {
	words := make([]*big.Int, 0, numWords)
	for i := uint32(0); i < numWords; i++ {
		h := sha256.New()
		h.Write(sig)
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, i)
		h.Write(b)
		words = append(words, new(big.Int).SetBytes(h.Sum(nil)))
	}
	return words
}
