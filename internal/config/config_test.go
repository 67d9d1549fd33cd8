package config_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ark-network/raffle/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("RAFFLE_DATADIR", datadir)
	t.Setenv("RAFFLE_ENTRANCE_FEE", "2500")
	t.Setenv("RAFFLE_INTERVAL", "120")
	t.Setenv("RAFFLE_ORACLE_FULFILLMENT_DELAY", "5s")
	t.Setenv("RAFFLE_TELEGRAM_TOKEN", "secret-token")
	t.Setenv("RAFFLE_TELEGRAM_CHAT_ID", "-1001")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	require.Equal(t, datadir, cfg.Datadir)
	require.Equal(t, filepath.Join(datadir, "db"), cfg.DbDir)
	require.DirExists(t, cfg.DbDir)
	require.Equal(t, uint32(config.DefaultPort), cfg.Port)
	require.True(t, cfg.NoTLS)
	require.Equal(t, 4, cfg.LogLevel)
	require.Equal(t, "sqlite", cfg.DbType)
	require.Equal(t, "badger", cfg.EventDbType)
	require.Equal(t, "inmemory", cfg.LiveStoreType)
	require.Equal(t, "gocron", cfg.SchedulerType)
	require.Equal(t, "vrf", cfg.OracleType)
	require.Equal(t, uint64(2500), cfg.EntranceFee)
	require.Equal(t, int64(120), cfg.Interval)
	require.Equal(t, 5*time.Second, cfg.OracleFulfillmentDelay)
	require.Equal(t, uint32(1), cfg.NumWords)
	require.Equal(t, int64(-1001), cfg.TelegramChatId)

	str := cfg.String()
	require.False(t, strings.Contains(str, "secret-token"))
	require.Equal(t, "secret-token", cfg.TelegramToken)
}
