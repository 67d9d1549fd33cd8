package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/ark-network/raffle/internal/app-config"
	"github.com/ark-network/raffle/internal/config"
	"github.com/ark-network/raffle/internal/core/ports"
	grpcservice "github.com/ark-network/raffle/internal/interface/grpc"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version will be set during build time
var Version string

const (
	urlFlagName   = "url"
	tokenFlagName = "token"
)

var (
	urlFlag = &cli.StringFlag{
		Name:  urlFlagName,
		Usage: "the url where to reach the raffle daemon",
		Value: fmt.Sprintf("http://localhost:%d", config.DefaultPort),
	}
	tokenFlag = &cli.StringFlag{
		Name:    tokenFlagName,
		Usage:   "bearer token for the admin and oracle endpoints",
		EnvVars: []string{"RAFFLE_AUTH_TOKEN"},
	}
)

func mainAction(_ *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	log.Debugf("loaded config: %s", cfg)

	svcConfig := grpcservice.Config{
		Datadir: cfg.Datadir,
		Port:    cfg.Port,
		NoTLS:   cfg.NoTLS,
	}

	appConfig := &appconfig.Config{
		DbType:                 cfg.DbType,
		EventDbType:            cfg.EventDbType,
		DbDir:                  cfg.DbDir,
		EventDbDir:             cfg.EventDbDir,
		LiveStoreType:          cfg.LiveStoreType,
		RedisUrl:               cfg.RedisUrl,
		RedisRetries:           cfg.RedisRetries,
		SchedulerType:          cfg.SchedulerType,
		WalletType:             cfg.WalletType,
		NotifierType:           cfg.NotifierType,
		TelegramToken:          cfg.TelegramToken,
		TelegramChatId:         cfg.TelegramChatId,
		OtelCollectorEndpoint:  cfg.OtelCollectorEndpoint,
		EntranceFee:            cfg.EntranceFee,
		Interval:               cfg.Interval,
		UpkeepCheckInterval:    cfg.UpkeepCheckInterval,
		PayoutRetryInterval:    cfg.PayoutRetryInterval,
		OracleType:             cfg.OracleType,
		OracleAuthToken:        cfg.OracleAuthToken,
		OraclePrivateKey:       cfg.OraclePrivateKey,
		OracleFulfillmentDelay: cfg.OracleFulfillmentDelay,
		Randomness: ports.RandomnessRequest{
			KeyHash:              cfg.KeyHash,
			SubscriptionId:       cfg.SubscriptionId,
			RequestConfirmations: cfg.RequestConfirmations,
			CallbackGasLimit:     cfg.CallbackGasLimit,
			NumWords:             cfg.NumWords,
		},
		AdminAuthToken: cfg.AdminAuthToken,
	}

	svc, err := grpcservice.NewService(svcConfig, appConfig)
	if err != nil {
		return err
	}

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, os.Interrupt)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)

	return nil
}

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "raffled"
	app.Usage = "run or manage the raffle daemon"
	app.UsageText = "Runs the raffle daemon when no command is given"
	app.Commands = append(
		app.Commands,
		infoCmd,
		enterCmd,
		upkeepCmd,
		fulfillCmd,
		payoutsCmd,
		retryPayoutCmd,
		requestsCmd,
		proofCmd,
	)
	app.Action = mainAction
	app.Flags = append(app.Flags, urlFlag, tokenFlag)

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
