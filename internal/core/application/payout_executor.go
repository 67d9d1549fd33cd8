package application

import (
	"context"
	"fmt"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// payoutExecutor transfers the pool of a round to its winner and keeps the
// payout record in sync with the outcome of each attempt.
type payoutExecutor struct {
	wallet  ports.WalletService
	payouts domain.PayoutRepository
}

func newPayoutExecutor(
	wallet ports.WalletService, payouts domain.PayoutRepository,
) *payoutExecutor {
	return &payoutExecutor{wallet, payouts}
}

// execute returns the txid of the transfer. An already settled payout is
// not transferred twice.
func (e *payoutExecutor) execute(
	ctx context.Context, payout *domain.Payout, timestamp int64,
) (string, error) {
	if payout.Settled {
		return payout.Txid, nil
	}

	txid, err := e.wallet.Transfer(ctx, payout.Winner, payout.Amount)
	if err != nil {
		payout.Fail(err, timestamp)
		if err := e.payouts.AddOrUpdatePayout(ctx, *payout); err != nil {
			log.WithError(err).Warnf("failed to store failed payout for round %s", payout.RoundId)
		}
		return "", fmt.Errorf("%w: %s", domain.ErrPayoutTransferFailed, err)
	}

	payout.Settle(txid, timestamp)
	if err := e.payouts.AddOrUpdatePayout(ctx, *payout); err != nil {
		log.WithError(err).Warnf("failed to store settled payout for round %s", payout.RoundId)
	}
	return txid, nil
}
