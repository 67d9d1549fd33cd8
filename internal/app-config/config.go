package appconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/ark-network/raffle/internal/core/application"
	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/ark-network/raffle/internal/infrastructure/db"
	inmemorylivestore "github.com/ark-network/raffle/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/ark-network/raffle/internal/infrastructure/live-store/redis"
	telegramnotifier "github.com/ark-network/raffle/internal/infrastructure/notifier/telegram"
	externaloracle "github.com/ark-network/raffle/internal/infrastructure/oracle/external"
	vrforacle "github.com/ark-network/raffle/internal/infrastructure/oracle/vrf"
	timescheduler "github.com/ark-network/raffle/internal/infrastructure/scheduler/gocron"
	inmemorywallet "github.com/ark-network/raffle/internal/infrastructure/wallet/inmemory"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var (
	supportedEventDbs = supportedType{
		"badger": {},
		"sqlite": {},
	}
	supportedDbs = supportedType{
		"badger": {},
		"sqlite": {},
	}
	supportedLiveStores = supportedType{
		"inmemory": {},
		"redis":    {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedWallets = supportedType{
		"inmemory": {},
	}
	supportedOracles = supportedType{
		"vrf":      {},
		"external": {},
	}
	supportedNotifiers = supportedType{
		"none":     {},
		"telegram": {},
	}
)

type Config struct {
	DbType                string
	EventDbType           string
	DbDir                 string
	EventDbDir            string
	LiveStoreType         string
	RedisUrl              string
	RedisRetries          int
	SchedulerType         string
	WalletType            string
	NotifierType          string
	TelegramToken         string
	TelegramChatId        int64
	OtelCollectorEndpoint string

	EntranceFee         uint64
	Interval            int64
	UpkeepCheckInterval int64
	PayoutRetryInterval int64

	OracleType             string
	OracleAuthToken        string
	OraclePrivateKey       string
	OracleFulfillmentDelay time.Duration
	Randomness             ports.RandomnessRequest

	AdminAuthToken string

	repo      ports.RepoManager
	svc       application.Service
	wallet    ports.WalletService
	oracle    ports.RandomnessOracle
	scheduler ports.SchedulerService
	liveStore ports.LiveStore
	notifier  ports.Notifier
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf("event db type not supported, please select one of: %s", supportedEventDbs)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedLiveStores.supports(c.LiveStoreType) {
		return fmt.Errorf("live store type not supported, please select one of: %s", supportedLiveStores)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf("scheduler type not supported, please select one of: %s", supportedSchedulers)
	}
	if !supportedWallets.supports(c.WalletType) {
		return fmt.Errorf("wallet type not supported, please select one of: %s", supportedWallets)
	}
	if !supportedOracles.supports(c.OracleType) {
		return fmt.Errorf("oracle type not supported, please select one of: %s", supportedOracles)
	}
	if len(c.NotifierType) > 0 && !supportedNotifiers.supports(c.NotifierType) {
		return fmt.Errorf("notifier type not supported, please select one of: %s", supportedNotifiers)
	}
	if c.Interval < 1 {
		return fmt.Errorf("invalid interval, must be at least 1 second")
	}
	if c.UpkeepCheckInterval < 0 || c.PayoutRetryInterval < 0 {
		return fmt.Errorf("invalid task interval, must not be negative")
	}
	if c.LiveStoreType == "redis" && len(c.RedisUrl) <= 0 {
		return fmt.Errorf("missing redis url for redis live store")
	}
	if c.NotifierType == "telegram" && len(c.TelegramToken) <= 0 {
		return fmt.Errorf("missing telegram token for telegram notifier")
	}
	if c.OracleType == "external" && len(c.OracleAuthToken) <= 0 {
		log.Warn("external oracle fulfill endpoint is not protected by any auth token")
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.walletService(); err != nil {
		return err
	}
	if err := c.oracleService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.liveStoreService(); err != nil {
		return err
	}
	if err := c.notifierService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) WalletService() ports.WalletService {
	return c.wallet
}

func (c *Config) OracleService() ports.RandomnessOracle {
	return c.oracle
}

// VrfOracle returns the local verifiable oracle, if configured.
func (c *Config) VrfOracle() (*vrforacle.Oracle, bool) {
	oracle, ok := c.oracle.(*vrforacle.Oracle)
	return oracle, ok
}

// ExternalOracle returns the oracle waiting for off-box fulfillments, if
// that is the configured type.
func (c *Config) ExternalOracle() (*externaloracle.Oracle, bool) {
	oracle, ok := c.oracle.(*externaloracle.Oracle)
	return oracle, ok
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, logger}
	case "sqlite":
		eventStoreConfig = []interface{}{c.EventDbDir}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) walletService() error {
	switch c.WalletType {
	case "inmemory":
		c.wallet = inmemorywallet.NewService()
	default:
		return fmt.Errorf("unknown wallet type")
	}
	return nil
}

func (c *Config) oracleService() error {
	switch c.OracleType {
	case "vrf":
		oracle, err := vrforacle.NewOracle(c.OraclePrivateKey, c.OracleFulfillmentDelay)
		if err != nil {
			return err
		}
		log.Infof("vrf oracle public key: %s", oracle.PublicKey())
		c.oracle = oracle
	case "external":
		c.oracle = externaloracle.NewOracle()
	default:
		return fmt.Errorf("unknown oracle type")
	}
	return nil
}

func (c *Config) schedulerService() error {
	switch c.SchedulerType {
	case "gocron":
		c.scheduler = timescheduler.NewScheduler()
	default:
		return fmt.Errorf("unknown scheduler type")
	}
	return nil
}

func (c *Config) liveStoreService() error {
	switch c.LiveStoreType {
	case "inmemory":
		c.liveStore = inmemorylivestore.NewLiveStore()
	case "redis":
		redisOpts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid redis url: %s", err)
		}
		rdb := redis.NewClient(redisOpts)
		c.liveStore = redislivestore.NewLiveStore(rdb, c.RedisRetries)
	default:
		return fmt.Errorf("unknown live store type")
	}
	return nil
}

func (c *Config) notifierService() error {
	switch c.NotifierType {
	case "", "none":
		return nil
	case "telegram":
		svc, err := telegramnotifier.NewNotifier(c.TelegramToken, c.TelegramChatId)
		if err != nil {
			return err
		}
		c.notifier = svc
	default:
		return fmt.Errorf("unknown notifier type")
	}
	return nil
}

func (c *Config) appService() error {
	svc, err := application.NewService(
		application.Config{
			EntranceFee:         c.EntranceFee,
			Interval:            c.Interval,
			UpkeepCheckInterval: c.UpkeepCheckInterval,
			PayoutRetryInterval: c.PayoutRetryInterval,
			Randomness:          c.Randomness,
		},
		c.wallet, c.repo, c.oracle, c.scheduler, c.liveStore, c.notifier,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
