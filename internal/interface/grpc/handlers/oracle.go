package handlers

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Fulfiller delivers the random words for a randomness request.
type Fulfiller interface {
	Fulfill(ctx context.Context, requestId string, randomWords []*big.Int) error
}

type FulfillerFunc func(ctx context.Context, requestId string, randomWords []*big.Int) error

func (f FulfillerFunc) Fulfill(
	ctx context.Context, requestId string, randomWords []*big.Int,
) error {
	return f(ctx, requestId, randomWords)
}

// PendingRequest is a randomness request waiting for its random words.
type PendingRequest struct {
	RequestId string `json:"requestId"`
	NumWords  uint32 `json:"numWords"`
	KeyHash   string `json:"keyHash"`
	CreatedAt int64  `json:"createdAt"`
}

// Prover returns the proof that the words delivered for a request were
// derived from the oracle key. Values are hex encoded.
type Prover interface {
	GetProof(requestId string) (*Proof, error)
}

type Proof struct {
	RequestId   string   `json:"requestId"`
	PublicKey   string   `json:"publicKey"`
	Seed        string   `json:"seed"`
	Signature   string   `json:"signature"`
	RandomWords []string `json:"randomWords"`
}

type oracleHandler struct {
	fulfiller       Fulfiller
	pendingRequests func() []PendingRequest
}

func (h *oracleHandler) register(r gin.IRouter) {
	r.POST("/fulfill", h.fulfillRandomWords)
	if h.pendingRequests != nil {
		r.GET("/requests", h.listPendingRequests)
	}
}

func (h *oracleHandler) listPendingRequests(c *gin.Context) {
	requests := h.pendingRequests()
	if requests == nil {
		requests = make([]PendingRequest, 0)
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

type proofHandler struct {
	prover Prover
}

func (h *proofHandler) register(r gin.IRouter) {
	r.GET("/proofs/:requestId", h.getProof)
}

func (h *proofHandler) getProof(c *gin.Context) {
	proof, err := h.prover.GetProof(c.Param("requestId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, proof)
}

func (h *oracleHandler) fulfillRandomWords(c *gin.Context) {
	var req fulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBadRequest(c, err.Error())
		return
	}

	words, err := parseRandomWords(req.RandomWords)
	if err != nil {
		abortWithBadRequest(c, err.Error())
		return
	}

	if err := h.fulfiller.Fulfill(c.Request.Context(), req.RequestId, words); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseRandomWords accepts decimal or 0x-prefixed hex strings.
func parseRandomWords(list []string) ([]*big.Int, error) {
	words := make([]*big.Int, 0, len(list))
	for _, s := range list {
		word, ok := new(big.Int).SetString(s, 0)
		if !ok || word.Sign() < 0 {
			return nil, fmt.Errorf("invalid random word %s", s)
		}
		words = append(words, word)
	}
	return words, nil
}
