package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

type Config struct {
	Datadir  string
	Port     uint32
	NoTLS    bool
	LogLevel int

	DbType        string
	EventDbType   string
	DbDir         string
	EventDbDir    string
	LiveStoreType string
	RedisUrl      string
	RedisRetries  int
	SchedulerType string
	WalletType    string

	EntranceFee         uint64
	Interval            int64
	UpkeepCheckInterval int64
	PayoutRetryInterval int64

	OracleType             string
	OracleAuthToken        string
	OraclePrivateKey       string
	OracleFulfillmentDelay time.Duration
	KeyHash                string
	SubscriptionId         uint64
	RequestConfirmations   uint16
	CallbackGasLimit       uint32
	NumWords               uint32
	AdminAuthToken         string
	NotifierType           string
	TelegramToken          string
	TelegramChatId         int64
	OtelCollectorEndpoint  string
}

func (c *Config) String() string {
	clone := *c
	clone.OracleAuthToken = mask(clone.OracleAuthToken)
	clone.OraclePrivateKey = mask(clone.OraclePrivateKey)
	clone.AdminAuthToken = mask(clone.AdminAuthToken)
	clone.TelegramToken = mask(clone.TelegramToken)

	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir                = "DATADIR"
	Port                   = "PORT"
	NoTLS                  = "NO_TLS"
	LogLevel               = "LOG_LEVEL"
	DbType                 = "DB_TYPE"
	EventDbType            = "EVENT_DB_TYPE"
	LiveStoreType          = "LIVE_STORE_TYPE"
	RedisUrl               = "REDIS_URL"
	RedisRetries           = "REDIS_NUM_OF_RETRIES"
	SchedulerType          = "SCHEDULER_TYPE"
	WalletType             = "WALLET_TYPE"
	EntranceFee            = "ENTRANCE_FEE"
	Interval               = "INTERVAL"
	UpkeepCheckInterval    = "UPKEEP_CHECK_INTERVAL"
	PayoutRetryInterval    = "PAYOUT_RETRY_INTERVAL"
	OracleType             = "ORACLE_TYPE"
	OracleAuthToken        = "ORACLE_AUTH_TOKEN"
	OraclePrivateKey       = "ORACLE_PRIVATE_KEY"
	OracleFulfillmentDelay = "ORACLE_FULFILLMENT_DELAY"
	KeyHash                = "KEY_HASH"
	SubscriptionId         = "SUBSCRIPTION_ID"
	RequestConfirmations   = "REQUEST_CONFIRMATIONS"
	CallbackGasLimit       = "CALLBACK_GAS_LIMIT"
	NumWords               = "NUM_WORDS"
	AdminAuthToken         = "ADMIN_AUTH_TOKEN"
	NotifierType           = "NOTIFIER_TYPE"
	TelegramToken          = "TELEGRAM_TOKEN"
	TelegramChatId         = "TELEGRAM_CHAT_ID"
	OtelCollectorEndpoint  = "OTEL_COLLECTOR_ENDPOINT"

	defaultDatadir                = btcutil.AppDataDir("raffled", false)
	DefaultPort                   = 7080
	defaultNoTLS                  = true
	defaultLogLevel               = 4
	defaultDbType                 = "sqlite"
	defaultEventDbType            = "badger"
	defaultLiveStoreType          = "inmemory"
	defaultRedisRetries           = 5
	defaultSchedulerType          = "gocron"
	defaultWalletType             = "inmemory"
	defaultEntranceFee            = 10000
	defaultInterval               = 30
	defaultUpkeepCheckInterval    = 5
	defaultPayoutRetryInterval    = 60
	defaultOracleType             = "vrf"
	defaultOracleFulfillmentDelay = 2 * time.Second
	defaultRequestConfirmations   = 3
	defaultCallbackGasLimit       = 500000
	defaultNumWords               = 1
	defaultNotifierType           = "none"
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("RAFFLE")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(Port, DefaultPort)
	viper.SetDefault(NoTLS, defaultNoTLS)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(EventDbType, defaultEventDbType)
	viper.SetDefault(LiveStoreType, defaultLiveStoreType)
	viper.SetDefault(RedisRetries, defaultRedisRetries)
	viper.SetDefault(SchedulerType, defaultSchedulerType)
	viper.SetDefault(WalletType, defaultWalletType)
	viper.SetDefault(EntranceFee, defaultEntranceFee)
	viper.SetDefault(Interval, defaultInterval)
	viper.SetDefault(UpkeepCheckInterval, defaultUpkeepCheckInterval)
	viper.SetDefault(PayoutRetryInterval, defaultPayoutRetryInterval)
	viper.SetDefault(OracleType, defaultOracleType)
	viper.SetDefault(OracleFulfillmentDelay, defaultOracleFulfillmentDelay)
	viper.SetDefault(RequestConfirmations, defaultRequestConfirmations)
	viper.SetDefault(CallbackGasLimit, defaultCallbackGasLimit)
	viper.SetDefault(NumWords, defaultNumWords)
	viper.SetDefault(NotifierType, defaultNotifierType)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	dbPath := filepath.Join(viper.GetString(Datadir), "db")
	if err := makeDirectoryIfNotExists(dbPath); err != nil {
		return nil, fmt.Errorf("error while creating db dir: %s", err)
	}

	return &Config{
		Datadir:                viper.GetString(Datadir),
		Port:                   viper.GetUint32(Port),
		NoTLS:                  viper.GetBool(NoTLS),
		LogLevel:               viper.GetInt(LogLevel),
		DbType:                 viper.GetString(DbType),
		EventDbType:            viper.GetString(EventDbType),
		DbDir:                  dbPath,
		EventDbDir:             dbPath,
		LiveStoreType:          viper.GetString(LiveStoreType),
		RedisUrl:               viper.GetString(RedisUrl),
		RedisRetries:           viper.GetInt(RedisRetries),
		SchedulerType:          viper.GetString(SchedulerType),
		WalletType:             viper.GetString(WalletType),
		EntranceFee:            viper.GetUint64(EntranceFee),
		Interval:               viper.GetInt64(Interval),
		UpkeepCheckInterval:    viper.GetInt64(UpkeepCheckInterval),
		PayoutRetryInterval:    viper.GetInt64(PayoutRetryInterval),
		OracleType:             viper.GetString(OracleType),
		OracleAuthToken:        viper.GetString(OracleAuthToken),
		OraclePrivateKey:       viper.GetString(OraclePrivateKey),
		OracleFulfillmentDelay: viper.GetDuration(OracleFulfillmentDelay),
		KeyHash:                viper.GetString(KeyHash),
		SubscriptionId:         viper.GetUint64(SubscriptionId),
		RequestConfirmations:   viper.GetUint16(RequestConfirmations),
		CallbackGasLimit:       viper.GetUint32(CallbackGasLimit),
		NumWords:               viper.GetUint32(NumWords),
		AdminAuthToken:         viper.GetString(AdminAuthToken),
		NotifierType:           viper.GetString(NotifierType),
		TelegramToken:          viper.GetString(TelegramToken),
		TelegramChatId:         viper.GetInt64(TelegramChatId),
		OtelCollectorEndpoint:  viper.GetString(OtelCollectorEndpoint),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func mask(secret string) string {
	if len(secret) <= 0 {
		return ""
	}
	return "********"
}
