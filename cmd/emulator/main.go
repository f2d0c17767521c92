package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bridge-emulator/pkg/accounts"
	"bridge-emulator/pkg/emulator"
	"bridge-emulator/pkg/scheduler"
	"bridge-emulator/pkg/shared"
	"bridge-emulator/pkg/stats"
	"bridge-emulator/pkg/transfer"

	datadog "github.com/DataDog/datadog-api-client-go/api/v2/datadog"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

var (
	optionConfig = &cli.StringFlag{
		Name:     "config",
		Usage:    "path to emulator config file",
		Required: false, // Can also set config via env vars
		EnvVars:  []string{"BRIDGE_EMULATOR_CONFIG"},
	}
)

func main() {
	app := &cli.App{
		Name:  "bridge-emulator",
		Usage: "Emulates bridge traffic between the home and foreign chains",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start continuous bridge cycles over all configured accounts",
				Flags: []cli.Flag{
					optionConfig,
				},
				Action: func(c *cli.Context) error {
					return start(c)
				},
			},
		}}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.Writer, "exited with error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	LogLevel              string  `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFile               string  `yaml:"log_file" envconfig:"LOG_FILE"`
	AccountFile           string  `yaml:"account_file" envconfig:"ACCOUNT_FILE"`
	HomeRPCUrl            string  `yaml:"home_rpc_url" envconfig:"HOME_RPC_URL"`
	ForeignRPCUrl         string  `yaml:"foreign_rpc_url" envconfig:"FOREIGN_RPC_URL"`
	HomeContractAddr      string  `yaml:"home_contract_addr" envconfig:"HOME_CONTRACT_ADDR"`
	ForeignContractAddr   string  `yaml:"foreign_contract_addr" envconfig:"FOREIGN_CONTRACT_ADDR"`
	HomeChainID           int64   `yaml:"home_chain_id" envconfig:"HOME_CHAIN_ID"`
	ForeignChainID        int64   `yaml:"foreign_chain_id" envconfig:"FOREIGN_CHAIN_ID"`
	MaxDailyOps           int     `yaml:"max_daily_ops" envconfig:"MAX_DAILY_OPS"`
	MinAmountEther        float64 `yaml:"min_amount_ether" envconfig:"MIN_AMOUNT_ETHER"`
	MaxAmountEther        float64 `yaml:"max_amount_ether" envconfig:"MAX_AMOUNT_ETHER"`
	MinDelayMs            int64   `yaml:"min_delay_ms" envconfig:"MIN_DELAY_MS"`
	MaxDelayMs            int64   `yaml:"max_delay_ms" envconfig:"MAX_DELAY_MS"`
	CycleDelayMinutes     int64   `yaml:"cycle_delay_minutes" envconfig:"CYCLE_DELAY_MINUTES"`
	RetryDelayMinutes     int64   `yaml:"retry_delay_minutes" envconfig:"RETRY_DELAY_MINUTES"`
	ConfirmTimeoutSec     int64   `yaml:"confirm_timeout_sec" envconfig:"CONFIRM_TIMEOUT_SEC"`
	MsgGasLimit           uint64  `yaml:"msg_gas_limit" envconfig:"MSG_GAS_LIMIT"`
	OutboundBufferEther   float64 `yaml:"outbound_buffer_ether" envconfig:"OUTBOUND_BUFFER_ETHER"`
	SuspendAfterFailures  int     `yaml:"suspend_after_failures" envconfig:"SUSPEND_AFTER_FAILURES"`
	SuspensionMinutes     int64   `yaml:"suspension_minutes" envconfig:"SUSPENSION_MINUTES"`
	ReportIntervalMinutes int64   `yaml:"report_interval_minutes" envconfig:"REPORT_INTERVAL_MINUTES"`
	CancelPendingOnStart  bool    `yaml:"cancel_pending_on_start" envconfig:"CANCEL_PENDING_ON_START"`
	Environment           string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

func loadConfigFromEnv() (config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return config{}, fmt.Errorf("failed to process env var config, %w", err)
	}
	return cfg, nil
}

func loadConfigFromFile(cfg *config, filePath string) error {
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file at: %s, %w", filePath, err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config file at: %s, %w", filePath, err)
	}
	return nil
}

func checkConfig(cfg *config) error {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.LogFile == "" {
		cfg.LogFile = "bridge-emulator.log"
	}

	if cfg.AccountFile == "" {
		return fmt.Errorf("account_file is required")
	}

	if cfg.HomeRPCUrl == "" {
		return fmt.Errorf("home_rpc_url is required")
	}

	if cfg.ForeignRPCUrl == "" {
		return fmt.Errorf("foreign_rpc_url is required")
	}

	if !common.IsHexAddress(cfg.HomeContractAddr) {
		return fmt.Errorf("home_contract_addr must be a valid hex address")
	}

	if !common.IsHexAddress(cfg.ForeignContractAddr) {
		return fmt.Errorf("foreign_contract_addr must be a valid hex address")
	}

	if cfg.MaxAmountEther != 0 && cfg.MaxAmountEther < cfg.MinAmountEther {
		return fmt.Errorf("max_amount_ether must not be less than min_amount_ether")
	}

	if cfg.MsgGasLimit == 0 {
		cfg.MsgGasLimit = 168000
	}

	if cfg.OutboundBufferEther == 0 {
		cfg.OutboundBufferEther = 0.0001
	}

	if cfg.ReportIntervalMinutes == 0 {
		cfg.ReportIntervalMinutes = 60
	}

	if cfg.Environment == "" {
		cfg.Environment = "test"
	}

	return nil
}

// setupLogging renders every event twice: colorized on the console and
// color-stripped appended to the log file.
func setupLogging(logLevel string, logFile string) {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse log level")
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal().Err(err).Msgf("failed to open log file at: %s", logFile)
	}
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	fileWriter := zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339}
	log.Logger = log.Output(zerolog.MultiLevelWriter(consoleWriter, fileWriter))
}

// datadogContext attaches the Datadog auth keys to ctx. Metric posting is
// disabled when either key is unset.
func datadogContext(ctx context.Context) (context.Context, bool) {
	apiKey := os.Getenv("DD_API_KEY")
	appKey := os.Getenv("DD_APP_KEY")
	if apiKey == "" || appKey == "" {
		return ctx, false
	}
	ctx = context.WithValue(ctx, datadog.ContextAPIKeys, map[string]datadog.APIKey{
		"apiKeyAuth": {
			Key: apiKey,
		},
		"appKeyAuth": {
			Key: appKey,
		},
	})
	return ctx, true
}

func checkChainID(endpoint *transfer.Endpoint, want int64) {
	if want == 0 {
		return
	}
	if endpoint.ChainID.Int64() != want {
		log.Fatal().Msgf("%s chain id mismatch: node reports %s, config expects %d",
			endpoint.Chain, endpoint.ChainID.String(), want)
	}
}

// cancelPending clears stuck transactions left over from a previous run, so
// fresh bridge ops do not queue behind them.
func cancelPending(ctx context.Context, accts []*accounts.Account, endpoints ...*transfer.Endpoint) {
	for _, endpoint := range endpoints {
		for _, acct := range accts {
			exist, err := shared.PendingTransactionsExist(ctx, acct.PrivateKey, endpoint.Client)
			if err != nil {
				log.Warn().Err(err).Msgf("Failed to check pending txes for %s on %s",
					acct.Address.Hex(), endpoint.Chain)
				continue
			}
			if !exist {
				continue
			}
			log.Info().Msgf("Cancelling pending txes for %s on %s", acct.Address.Hex(), endpoint.Chain)
			if err := shared.CancelPendingTxes(ctx, acct.PrivateKey, endpoint.Client); err != nil {
				log.Warn().Err(err).Msgf("Failed to cancel pending txes for %s on %s",
					acct.Address.Hex(), endpoint.Chain)
			}
		}
	}
}

func start(c *cli.Context) error {
	_ = godotenv.Load()

	cfg, err := loadConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config from env vars")
	}

	configFilePath := c.String(optionConfig.Name)
	if configFilePath == "" {
		log.Info().Msg("env var config will be used")
	} else {
		log.Info().Str("config_file", configFilePath).Msg(
			"overriding env var config with file")
		if err := loadConfigFromFile(&cfg, configFilePath); err != nil {
			log.Fatal().Err(err).Msg("failed to load config provided as file")
		}
	}

	if err := checkConfig(&cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setupLogging(cfg.LogLevel, cfg.LogFile)

	accts, err := accounts.Load(cfg.AccountFile)
	if err != nil {
		log.Fatal().Err(err).Msgf("failed to load accounts from %s", cfg.AccountFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, ddEnabled := datadogContext(ctx)

	var publisher stats.Publisher
	if ddEnabled {
		publisher = stats.NewDatadogPublisher()
	} else {
		log.Warn().Msg("DD_API_KEY or DD_APP_KEY unset, metrics will not be posted")
	}

	homeEndpoint, err := transfer.DialEndpoint(
		ctx, transfer.Home, cfg.HomeRPCUrl, common.HexToAddress(cfg.HomeContractAddr))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up home endpoint")
	}
	foreignEndpoint, err := transfer.DialEndpoint(
		ctx, transfer.Foreign, cfg.ForeignRPCUrl, common.HexToAddress(cfg.ForeignContractAddr))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up foreign endpoint")
	}
	checkChainID(homeEndpoint, cfg.HomeChainID)
	checkChainID(foreignEndpoint, cfg.ForeignChainID)

	if cfg.CancelPendingOnStart {
		cancelPending(ctx, accts, homeEndpoint, foreignEndpoint)
	}

	sched := scheduler.New(scheduler.Config{
		MaxDailyOps:      cfg.MaxDailyOps,
		MinAmountMicro:   scheduler.EtherToMicro(cfg.MinAmountEther),
		MaxAmountMicro:   scheduler.EtherToMicro(cfg.MaxAmountEther),
		MinDelay:         time.Duration(cfg.MinDelayMs) * time.Millisecond,
		MaxDelay:         time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		SuspendAfter:     cfg.SuspendAfterFailures,
		SuspensionPeriod: time.Duration(cfg.SuspensionMinutes) * time.Minute,
	})

	bridger := transfer.NewBridger(homeEndpoint, foreignEndpoint, transfer.Options{
		MsgGasLimit:    cfg.MsgGasLimit,
		OutboundBuffer: scheduler.EtherToWei(cfg.OutboundBufferEther),
		ConfirmTimeout: time.Duration(cfg.ConfirmTimeoutSec) * time.Second,
	})

	st := stats.NewStats(cfg.Environment, homeEndpoint.ChainID, foreignEndpoint.ChainID, publisher)
	reporterDone := stats.StartReporter(ctx, st, time.Duration(cfg.ReportIntervalMinutes)*time.Minute)

	em := emulator.New(&emulator.Options{
		Accounts:   accts,
		Scheduler:  sched,
		Bridger:    bridger,
		Stats:      st,
		CycleDelay: time.Duration(cfg.CycleDelayMinutes) * time.Minute,
		RetryDelay: time.Duration(cfg.RetryDelayMinutes) * time.Minute,
	})

	emulatorDone := make(chan struct{})
	go func() {
		defer close(emulatorDone)
		em.Run(ctx)
	}()

	interruptSigChan := make(chan os.Signal, 1)
	signal.Notify(interruptSigChan, os.Interrupt, syscall.SIGTERM)

	// Block until interrupt signal OR context's Done channel is closed.
	select {
	case <-interruptSigChan:
	case <-c.Done():
	}
	fmt.Fprintf(c.App.Writer, "shutting down...\n")
	cancel()

	closedAllSuccessfully := make(chan struct{})
	go func() {
		defer close(closedAllSuccessfully)

		<-emulatorDone
		<-reporterDone
	}()
	select {
	case <-closedAllSuccessfully:
	case <-time.After(5 * time.Second):
		log.Error().Msg("failed to close all in time")
	}

	return nil
}
