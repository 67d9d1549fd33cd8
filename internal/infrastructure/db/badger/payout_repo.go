package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const payoutStoreDir = "payouts"

type payoutRepository struct {
	store *badgerhold.Store
}

func NewPayoutRepository(config ...interface{}) (domain.PayoutRepository, error) {
	baseDir, logger, err := parseConfig(config)
	if err != nil {
		return nil, err
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, payoutStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open payout store: %s", err)
	}

	return &payoutRepository{store}, nil
}

func (r *payoutRepository) AddOrUpdatePayout(_ context.Context, payout domain.Payout) error {
	return r.store.Upsert(payout.RoundId, payout)
}

func (r *payoutRepository) GetPayout(
	_ context.Context, roundId string,
) (*domain.Payout, error) {
	payout := domain.Payout{}
	if err := r.store.Get(roundId, &payout); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

func (r *payoutRepository) GetPendingPayouts(_ context.Context) ([]domain.Payout, error) {
	query := badgerhold.Where("Settled").Eq(false).SortBy("CreatedAt")

	var payouts []domain.Payout
	if err := r.store.Find(&payouts, query); err != nil {
		return nil, err
	}
	if payouts == nil {
		payouts = make([]domain.Payout, 0)
	}
	return payouts, nil
}

func (r *payoutRepository) Close() {
	r.store.Close()
}
