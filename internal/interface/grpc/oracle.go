package grpcservice

import (
	"encoding/hex"
	"fmt"

	"github.com/ark-network/raffle/internal/core/domain"
	externaloracle "github.com/ark-network/raffle/internal/infrastructure/oracle/external"
	vrforacle "github.com/ark-network/raffle/internal/infrastructure/oracle/vrf"
	"github.com/ark-network/raffle/internal/interface/grpc/handlers"
)

// vrfProver checks every proof against the oracle key before serving it.
type vrfProver struct {
	oracle *vrforacle.Oracle
}

func (p vrfProver) GetProof(requestId string) (*handlers.Proof, error) {
	proof, ok := p.oracle.GetProof(requestId)
	if !ok {
		return nil, fmt.Errorf("%w %s", domain.ErrUnknownRequest, requestId)
	}

	pubkey := p.oracle.PublicKey()
	words, err := vrforacle.Verify(pubkey, *proof, proof.NumWords)
	if err != nil {
		return nil, err
	}
	buf, err := pubkey.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode oracle public key: %s", err)
	}

	randomWords := make([]string, 0, len(words))
	for _, word := range words {
		randomWords = append(randomWords, word.String())
	}
	return &handlers.Proof{
		RequestId:   proof.RequestId,
		PublicKey:   hex.EncodeToString(buf),
		Seed:        hex.EncodeToString(proof.Seed),
		Signature:   hex.EncodeToString(proof.Signature),
		RandomWords: randomWords,
	}, nil
}

func pendingRequests(oracle *externaloracle.Oracle) func() []handlers.PendingRequest {
	return func() []handlers.PendingRequest {
		requests := oracle.PendingRequests()
		list := make([]handlers.PendingRequest, 0, len(requests))
		for _, req := range requests {
			list = append(list, handlers.PendingRequest{
				RequestId: req.Id,
				NumWords:  req.NumWords,
				KeyHash:   req.KeyHash,
				CreatedAt: req.CreatedAt,
			})
		}
		return list
	}
}
