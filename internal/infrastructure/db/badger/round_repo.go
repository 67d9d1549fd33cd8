package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const roundStoreDir = "rounds"

type roundRepository struct {
	store *badgerhold.Store
}

func NewRoundRepository(config ...interface{}) (domain.RoundRepository, error) {
	baseDir, logger, err := parseConfig(config)
	if err != nil {
		return nil, err
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, roundStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open round store: %s", err)
	}

	return &roundRepository{store}, nil
}

func (r *roundRepository) AddOrUpdateRound(
	ctx context.Context, round domain.Round,
) error {
	return r.addOrUpdateRound(ctx, round)
}

func (r *roundRepository) GetRoundWithId(
	ctx context.Context, id string,
) (*domain.Round, error) {
	query := badgerhold.Where("Id").Eq(id)
	return r.findOne(ctx, query)
}

func (r *roundRepository) GetRoundWithRequestId(
	ctx context.Context, requestId string,
) (*domain.Round, error) {
	query := badgerhold.Where("RequestId").Eq(requestId)
	return r.findOne(ctx, query)
}

func (r *roundRepository) GetCurrentRound(ctx context.Context) (*domain.Round, error) {
	query := badgerhold.Where("Stage.Ended").Eq(false).
		And("Stage.Code").Ne(domain.UndefinedPhase)
	rounds, err := r.findRound(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rounds) <= 0 {
		return nil, nil
	}

	sort.SliceStable(rounds, func(i, j int) bool {
		return rounds[i].StartingTimestamp > rounds[j].StartingTimestamp
	})
	return &rounds[0], nil
}

func (r *roundRepository) GetLastEndedRound(ctx context.Context) (*domain.Round, error) {
	query := badgerhold.Where("Stage.Ended").Eq(true).
		SortBy("EndingTimestamp").Reverse().Limit(1)
	return r.findOne(ctx, query)
}

func (r *roundRepository) GetEndedRounds(
	ctx context.Context, startedAfter, startedBefore int64,
) ([]domain.Round, error) {
	query := badgerhold.Where("Stage.Ended").Eq(true)

	if startedAfter > 0 {
		query = query.And("StartingTimestamp").Gt(startedAfter)
	}

	if startedBefore > 0 {
		query = query.And("StartingTimestamp").Lt(startedBefore)
	}

	rounds, err := r.findRound(ctx, query.SortBy("StartingTimestamp"))
	if err != nil {
		return nil, err
	}
	if rounds == nil {
		rounds = make([]domain.Round, 0)
	}
	return rounds, nil
}

func (r *roundRepository) Close() {
	r.store.Close()
}

func (r *roundRepository) findOne(
	ctx context.Context, query *badgerhold.Query,
) (*domain.Round, error) {
	rounds, err := r.findRound(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rounds) <= 0 {
		return nil, nil
	}
	return &rounds[0], nil
}

func (r *roundRepository) findRound(
	_ context.Context, query *badgerhold.Query,
) ([]domain.Round, error) {
	var rounds []domain.Round
	err := r.store.Find(&rounds, query)
	return rounds, err
}

func (r *roundRepository) addOrUpdateRound(_ context.Context, round domain.Round) error {
	return r.store.Upsert(round.Id, round)
}
