package badgerdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
)

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
					if logger != nil {
						logger.Errorf("%s", err)
					}
				}
			}
		}()
	}

	return db, nil
}

func parseConfig(config []interface{}) (string, badger.Logger, error) {
	if len(config) != 2 {
		return "", nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return "", nil, fmt.Errorf("invalid base directory")
	}

	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return "", nil, fmt.Errorf("invalid logger")
		}
	}
	return baseDir, logger, nil
}

type eventDTO struct {
	Type domain.EventType
	Data json.RawMessage
}

func serializeEvents(events []domain.RoundEvent) (*eventsDTO, error) {
	rawEvents := make([][]byte, 0, len(events))
	for _, event := range events {
		buf, err := serializeEvent(event)
		if err != nil {
			return nil, err
		}
		rawEvents = append(rawEvents, buf)
	}
	return &eventsDTO{rawEvents}, nil
}

func deserializeEvents(rawEvents [][]byte) ([]domain.RoundEvent, error) {
	events := make([]domain.RoundEvent, 0)
	for _, buf := range rawEvents {
		event, err := deserializeEvent(buf)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func serializeEvent(event domain.RoundEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventDTO{event.GetType(), data})
}

func deserializeEvent(buf []byte) (domain.RoundEvent, error) {
	dto := eventDTO{}
	if err := json.Unmarshal(buf, &dto); err != nil {
		return nil, err
	}

	switch dto.Type {
	case domain.EventTypeRoundStarted:
		event := domain.RoundStarted{}
		err := json.Unmarshal(dto.Data, &event)
		return event, err
	case domain.EventTypeRaffleEntered:
		event := domain.RaffleEntered{}
		err := json.Unmarshal(dto.Data, &event)
		return event, err
	case domain.EventTypeDrawStarted:
		event := domain.DrawStarted{}
		err := json.Unmarshal(dto.Data, &event)
		return event, err
	case domain.EventTypeWinnerPicked:
		event := domain.WinnerPicked{}
		err := json.Unmarshal(dto.Data, &event)
		return event, err
	default:
		return nil, fmt.Errorf("unknown event type %s", dto.Type)
	}
}
