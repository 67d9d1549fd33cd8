package db

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/ark-network/raffle/internal/core/ports"
	badgerdb "github.com/ark-network/raffle/internal/infrastructure/db/badger"
	sqlitedb "github.com/ark-network/raffle/internal/infrastructure/db/sqlite"
)

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.RoundEventRepository, error){
		"badger": badgerdb.NewRoundEventRepository,
		"sqlite": sqlitedb.NewRoundEventRepository,
	}
	roundStoreTypes = map[string]func(...interface{}) (domain.RoundRepository, error){
		"badger": badgerdb.NewRoundRepository,
		"sqlite": sqlitedb.NewRoundRepository,
	}
	payoutStoreTypes = map[string]func(...interface{}) (domain.PayoutRepository, error){
		"badger": badgerdb.NewPayoutRepository,
		"sqlite": sqlitedb.NewPayoutRepository,
	}
)

const (
	sqliteDbFile = "sqlite.db"
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore  domain.RoundEventRepository
	roundStore  domain.RoundRepository
	payoutStore domain.PayoutRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid event store type: %s", config.EventStoreType)
	}

	roundStoreFactory, ok := roundStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	payoutStoreFactory, ok := payoutStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	// Event and data stores share the same sqlite db if they live in the
	// same directory.
	sqliteDbs := make(map[string]*sql.DB)

	eventStoreConfig := config.EventStoreConfig
	if config.EventStoreType == "sqlite" {
		db, err := openSqlite(eventStoreConfig, sqliteDbs)
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %w", err)
		}
		eventStoreConfig = []interface{}{db}
	}

	dataStoreConfig := config.DataStoreConfig
	if config.DataStoreType == "sqlite" {
		db, err := openSqlite(dataStoreConfig, sqliteDbs)
		if err != nil {
			return nil, fmt.Errorf("failed to open data store: %w", err)
		}
		dataStoreConfig = []interface{}{db}
	}

	eventStore, err := eventStoreFactory(eventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store: %w", err)
	}

	roundStore, err := roundStoreFactory(dataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create round store: %w", err)
	}

	payoutStore, err := payoutStoreFactory(dataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create payout store: %w", err)
	}

	return &service{
		eventStore:  eventStore,
		roundStore:  roundStore,
		payoutStore: payoutStore,
	}, nil
}

func (s *service) Events() domain.RoundEventRepository {
	return s.eventStore
}

func (s *service) Rounds() domain.RoundRepository {
	return s.roundStore
}

func (s *service) Payouts() domain.PayoutRepository {
	return s.payoutStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.roundStore.Close()
	s.payoutStore.Close()
}

func openSqlite(config []interface{}, opened map[string]*sql.DB) (*sql.DB, error) {
	if len(config) != 1 {
		return nil, errors.New("invalid config")
	}

	dbDir, ok := config[0].(string)
	if !ok {
		return nil, errors.New("invalid config")
	}

	if db, ok := opened[dbDir]; ok {
		return db, nil
	}

	db, err := sqlitedb.OpenDb(filepath.Join(dbDir, sqliteDbFile))
	if err != nil {
		return nil, err
	}

	if err := sqlitedb.MigrateDb(db); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	opened[dbDir] = db
	return db, nil
}
