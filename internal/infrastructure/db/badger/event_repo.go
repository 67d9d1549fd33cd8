package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const eventStoreDir = "round-events"

type eventsDTO struct {
	Events [][]byte
}

// eventRepository keeps the event log of every round under the round id and
// hands each updated round to the registered handler, one at a time.
type eventRepository struct {
	store   *badgerhold.Store
	updates chan *domain.Round
	done    chan struct{}
	wg      sync.WaitGroup

	handlerLock sync.Mutex
	handler     func(round *domain.Round)
}

func NewRoundEventRepository(config ...interface{}) (domain.RoundEventRepository, error) {
	baseDir, logger, err := parseConfig(config)
	if err != nil {
		return nil, err
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open round events store: %s", err)
	}

	repo := &eventRepository{
		store:   store,
		updates: make(chan *domain.Round),
		done:    make(chan struct{}),
	}
	go repo.dispatch()
	return repo, nil
}

func (r *eventRepository) Save(
	_ context.Context, id string, events ...domain.RoundEvent,
) (*domain.Round, error) {
	history, err := r.events(id)
	if err != nil {
		return nil, err
	}

	history = append(history, events...)
	dto, err := serializeEvents(history)
	if err != nil {
		return nil, err
	}
	if err := r.store.Upsert(id, dto); err != nil {
		return nil, fmt.Errorf("failed to store events of round %s: %s", id, err)
	}

	r.wg.Add(1)
	go r.publish(domain.NewRoundFromEvents(history))
	return domain.NewRoundFromEvents(history), nil
}

func (r *eventRepository) Load(_ context.Context, id string) (*domain.Round, error) {
	history, err := r.events(id)
	if err != nil {
		return nil, err
	}
	if len(history) <= 0 {
		return nil, fmt.Errorf("no events found for round %s", id)
	}
	return domain.NewRoundFromEvents(history), nil
}

func (r *eventRepository) RegisterEventsHandler(handler func(round *domain.Round)) {
	r.handlerLock.Lock()
	defer r.handlerLock.Unlock()
	r.handler = handler
}

func (r *eventRepository) Close() {
	select {
	case <-r.done:
		return
	default:
	}
	close(r.done)
	r.wg.Wait()
	r.store.Close()
}

func (r *eventRepository) events(id string) ([]domain.RoundEvent, error) {
	var dto eventsDTO
	if err := r.store.Get(id, &dto); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get events of round %s: %s", id, err)
	}
	return deserializeEvents(dto.Events)
}

func (r *eventRepository) publish(round *domain.Round) {
	defer r.wg.Done()
	select {
	case <-r.done:
	case r.updates <- round:
	}
}

func (r *eventRepository) dispatch() {
	for {
		select {
		case <-r.done:
			return
		case round := <-r.updates:
			r.handlerLock.Lock()
			if r.handler != nil {
				r.handler(round)
			}
			r.handlerLock.Unlock()
		}
	}
}
