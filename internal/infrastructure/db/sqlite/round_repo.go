package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ark-network/raffle/internal/core/domain"
)

const (
	upsertRound = `
INSERT INTO round (
    id, starting_timestamp, ending_timestamp, stage_code, ended, entrance_fee,
    round_interval, balance, request_id, draw_timestamp, random_value,
    winner_index, winner, num_of_entries, payout_amount, payout_txid, version
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    starting_timestamp = EXCLUDED.starting_timestamp,
    ending_timestamp = EXCLUDED.ending_timestamp,
    stage_code = EXCLUDED.stage_code,
    ended = EXCLUDED.ended,
    entrance_fee = EXCLUDED.entrance_fee,
    round_interval = EXCLUDED.round_interval,
    balance = EXCLUDED.balance,
    request_id = EXCLUDED.request_id,
    draw_timestamp = EXCLUDED.draw_timestamp,
    random_value = EXCLUDED.random_value,
    winner_index = EXCLUDED.winner_index,
    winner = EXCLUDED.winner,
    num_of_entries = EXCLUDED.num_of_entries,
    payout_amount = EXCLUDED.payout_amount,
    payout_txid = EXCLUDED.payout_txid,
    version = EXCLUDED.version`

	deleteEntries = `DELETE FROM entry WHERE round_id = ?`

	insertEntry = `INSERT INTO entry (round_id, position, participant) VALUES (?, ?, ?)`

	selectRoundColumns = `
SELECT id, starting_timestamp, ending_timestamp, stage_code, ended, entrance_fee,
    round_interval, balance, request_id, draw_timestamp, random_value,
    winner_index, winner, num_of_entries, payout_amount, payout_txid, version
FROM round`

	selectEntries = `SELECT participant FROM entry WHERE round_id = ? ORDER BY position`
)

type roundRepository struct {
	db *sql.DB
}

func NewRoundRepository(config ...interface{}) (domain.RoundRepository, error) {
	db, err := parseConfig(config, "round")
	if err != nil {
		return nil, err
	}

	return &roundRepository{db}, nil
}

func (r *roundRepository) Close() {
	_ = r.db.Close()
}

func (r *roundRepository) AddOrUpdateRound(ctx context.Context, round domain.Round) error {
	txBody := func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx, upsertRound,
			round.Id, round.StartingTimestamp, round.EndingTimestamp,
			int64(round.Stage.Code), round.Stage.Ended, int64(round.EntranceFee),
			round.Interval, int64(round.Entries.Balance), round.RequestId,
			round.DrawTimestamp, round.RandomValue, round.WinnerIndex,
			round.Winner, round.NumOfEntries, int64(round.PayoutAmount),
			round.PayoutTxid, int64(round.Version),
		); err != nil {
			return fmt.Errorf("failed to upsert round: %w", err)
		}

		if _, err := tx.ExecContext(ctx, deleteEntries, round.Id); err != nil {
			return fmt.Errorf("failed to reset entries: %w", err)
		}
		for pos, participant := range round.Entries.Participants {
			if _, err := tx.ExecContext(
				ctx, insertEntry, round.Id, pos, participant,
			); err != nil {
				return fmt.Errorf("failed to insert entry: %w", err)
			}
		}

		return nil
	}

	return execTx(ctx, r.db, txBody)
}

func (r *roundRepository) GetRoundWithId(ctx context.Context, id string) (*domain.Round, error) {
	return r.selectOne(ctx, selectRoundColumns+` WHERE id = ?`, id)
}

func (r *roundRepository) GetRoundWithRequestId(
	ctx context.Context, requestId string,
) (*domain.Round, error) {
	return r.selectOne(
		ctx, selectRoundColumns+` WHERE request_id = ? AND request_id != ''`, requestId,
	)
}

func (r *roundRepository) GetCurrentRound(ctx context.Context) (*domain.Round, error) {
	return r.selectOne(
		ctx,
		selectRoundColumns+` WHERE ended = FALSE AND stage_code != ? ORDER BY starting_timestamp DESC LIMIT 1`,
		int64(domain.UndefinedPhase),
	)
}

func (r *roundRepository) GetLastEndedRound(ctx context.Context) (*domain.Round, error) {
	return r.selectOne(
		ctx, selectRoundColumns+` WHERE ended = TRUE ORDER BY ending_timestamp DESC LIMIT 1`,
	)
}

func (r *roundRepository) GetEndedRounds(
	ctx context.Context, startedAfter, startedBefore int64,
) ([]domain.Round, error) {
	query := selectRoundColumns + ` WHERE ended = TRUE`
	args := make([]interface{}, 0, 2)
	if startedAfter > 0 {
		query += ` AND starting_timestamp > ?`
		args = append(args, startedAfter)
	}
	if startedBefore > 0 {
		query += ` AND starting_timestamp < ?`
		args = append(args, startedBefore)
	}
	query += ` ORDER BY starting_timestamp`

	return r.selectMany(ctx, query, args...)
}

func (r *roundRepository) selectOne(
	ctx context.Context, query string, args ...interface{},
) (*domain.Round, error) {
	rounds, err := r.selectMany(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rounds) <= 0 {
		return nil, nil
	}
	return &rounds[0], nil
}

func (r *roundRepository) selectMany(
	ctx context.Context, query string, args ...interface{},
) ([]domain.Round, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select rounds: %w", err)
	}

	rounds := make([]domain.Round, 0)
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		rounds = append(rounds, *round)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Entries are read on the same connection, release it first.
	_ = rows.Close()

	for i := range rounds {
		participants, err := r.selectParticipants(ctx, rounds[i].Id)
		if err != nil {
			return nil, err
		}
		rounds[i].Entries.Participants = participants
	}
	return rounds, nil
}

func (r *roundRepository) selectParticipants(
	ctx context.Context, roundId string,
) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, selectEntries, roundId)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	participants := make([]string, 0)
	for rows.Next() {
		var participant string
		if err := rows.Scan(&participant); err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRound(row rowScanner) (*domain.Round, error) {
	var round domain.Round
	var stageCode, entranceFee, balance, payout, version int64
	if err := row.Scan(
		&round.Id, &round.StartingTimestamp, &round.EndingTimestamp,
		&stageCode, &round.Stage.Ended, &entranceFee, &round.Interval,
		&balance, &round.RequestId, &round.DrawTimestamp, &round.RandomValue,
		&round.WinnerIndex, &round.Winner, &round.NumOfEntries, &payout,
		&round.PayoutTxid, &version,
	); err != nil {
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}

	round.Stage.Code = domain.RafflePhase(stageCode)
	round.EntranceFee = uint64(entranceFee)
	round.Entries.Balance = uint64(balance)
	round.PayoutAmount = uint64(payout)
	round.Version = uint(version)
	return &round, nil
}
