package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ark-network/raffle/internal/core/domain"
)

const (
	selectEvents = `SELECT type, data FROM round_event WHERE round_id = ? ORDER BY position`

	countEvents = `SELECT COUNT(*) FROM round_event WHERE round_id = ?`

	insertEvent = `INSERT INTO round_event (round_id, position, type, data) VALUES (?, ?, ?, ?)`
)

type eventRepository struct {
	db      *sql.DB
	lock    *sync.Mutex
	handler func(round *domain.Round)
}

func NewRoundEventRepository(config ...interface{}) (domain.RoundEventRepository, error) {
	db, err := parseConfig(config, "round event")
	if err != nil {
		return nil, err
	}

	return &eventRepository{
		db:   db,
		lock: &sync.Mutex{},
	}, nil
}

func (r *eventRepository) Save(
	ctx context.Context, id string, events ...domain.RoundEvent,
) (*domain.Round, error) {
	txBody := func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, countEvents, id).Scan(&count); err != nil {
			return err
		}
		for i, event := range events {
			data, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(
				ctx, insertEvent, id, count+i, string(event.GetType()), data,
			); err != nil {
				return fmt.Errorf("failed to insert %s event: %w", event.GetType(), err)
			}
		}
		return nil
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return nil, err
	}

	round, err := r.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	go r.runHandler(domain.NewRoundFromEvents(round.Events()))
	return round, nil
}

func (r *eventRepository) Load(ctx context.Context, id string) (*domain.Round, error) {
	rows, err := r.db.QueryContext(ctx, selectEvents, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select events of round %s: %w", id, err)
	}
	defer rows.Close()

	events := make([]domain.RoundEvent, 0)
	for rows.Next() {
		var eventType string
		var data []byte
		if err := rows.Scan(&eventType, &data); err != nil {
			return nil, err
		}
		event, err := deserializeEvent(domain.EventType(eventType), data)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) <= 0 {
		return nil, fmt.Errorf("no events found for round %s", id)
	}

	return domain.NewRoundFromEvents(events), nil
}

func (r *eventRepository) RegisterEventsHandler(handler func(round *domain.Round)) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.handler = handler
}

func (r *eventRepository) Close() {
	_ = r.db.Close()
}

func (r *eventRepository) runHandler(round *domain.Round) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.handler == nil {
		return
	}
	r.handler(round)
}

func deserializeEvent(eventType domain.EventType, data []byte) (domain.RoundEvent, error) {
	switch eventType {
	case domain.EventTypeRoundStarted:
		event := domain.RoundStarted{}
		err := json.Unmarshal(data, &event)
		return event, err
	case domain.EventTypeRaffleEntered:
		event := domain.RaffleEntered{}
		err := json.Unmarshal(data, &event)
		return event, err
	case domain.EventTypeDrawStarted:
		event := domain.DrawStarted{}
		err := json.Unmarshal(data, &event)
		return event, err
	case domain.EventTypeWinnerPicked:
		event := domain.WinnerPicked{}
		err := json.Unmarshal(data, &event)
		return event, err
	default:
		return nil, fmt.Errorf("unknown event type %s", eventType)
	}
}
