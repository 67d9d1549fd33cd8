package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ark-network/raffle/internal/core/domain"
)

const (
	upsertPayout = `
INSERT INTO payout (
    round_id, request_id, random_value, winner_index, winner, num_of_entries,
    amount, attempts, last_error, txid, settled, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(round_id) DO UPDATE SET
    request_id = EXCLUDED.request_id,
    random_value = EXCLUDED.random_value,
    winner_index = EXCLUDED.winner_index,
    winner = EXCLUDED.winner,
    num_of_entries = EXCLUDED.num_of_entries,
    amount = EXCLUDED.amount,
    attempts = EXCLUDED.attempts,
    last_error = EXCLUDED.last_error,
    txid = EXCLUDED.txid,
    settled = EXCLUDED.settled,
    updated_at = EXCLUDED.updated_at`

	selectPayoutColumns = `
SELECT round_id, request_id, random_value, winner_index, winner, num_of_entries,
    amount, attempts, last_error, txid, settled, created_at, updated_at
FROM payout`
)

type payoutRepository struct {
	db *sql.DB
}

func NewPayoutRepository(config ...interface{}) (domain.PayoutRepository, error) {
	db, err := parseConfig(config, "payout")
	if err != nil {
		return nil, err
	}

	return &payoutRepository{db}, nil
}

func (r *payoutRepository) Close() {
	_ = r.db.Close()
}

func (r *payoutRepository) AddOrUpdatePayout(ctx context.Context, payout domain.Payout) error {
	if _, err := r.db.ExecContext(
		ctx, upsertPayout,
		payout.RoundId, payout.RequestId, payout.RandomValue, payout.WinnerIndex,
		payout.Winner, payout.NumOfEntries, int64(payout.Amount), payout.Attempts,
		payout.LastError, payout.Txid, payout.Settled, payout.CreatedAt, payout.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert payout: %w", err)
	}
	return nil
}

func (r *payoutRepository) GetPayout(ctx context.Context, roundId string) (*domain.Payout, error) {
	payouts, err := r.selectPayouts(ctx, selectPayoutColumns+` WHERE round_id = ?`, roundId)
	if err != nil {
		return nil, err
	}
	if len(payouts) <= 0 {
		return nil, nil
	}
	return &payouts[0], nil
}

func (r *payoutRepository) GetPendingPayouts(ctx context.Context) ([]domain.Payout, error) {
	return r.selectPayouts(
		ctx, selectPayoutColumns+` WHERE settled = FALSE ORDER BY created_at`,
	)
}

func (r *payoutRepository) selectPayouts(
	ctx context.Context, query string, args ...interface{},
) ([]domain.Payout, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select payouts: %w", err)
	}
	defer rows.Close()

	payouts := make([]domain.Payout, 0)
	for rows.Next() {
		var payout domain.Payout
		var amount int64
		if err := rows.Scan(
			&payout.RoundId, &payout.RequestId, &payout.RandomValue,
			&payout.WinnerIndex, &payout.Winner, &payout.NumOfEntries, &amount,
			&payout.Attempts, &payout.LastError, &payout.Txid, &payout.Settled,
			&payout.CreatedAt, &payout.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payout.Amount = uint64(amount)
		payouts = append(payouts, payout)
	}
	return payouts, rows.Err()
}
