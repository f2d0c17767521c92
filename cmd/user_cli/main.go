package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bridge-emulator/pkg/accounts"
	"bridge-emulator/pkg/scheduler"
	"bridge-emulator/pkg/shared"
	"bridge-emulator/pkg/transfer"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

var (
	optionConfig = &cli.StringFlag{
		Name:     "config",
		Usage:    "path to CLI config file",
		Required: true,
		EnvVars:  []string{"BRIDGE_EMULATOR_CLI_CONFIG"},
	}

	optionAmount = &cli.Float64Flag{
		Name:     "amount",
		Usage:    "Amount of ether to bridge",
		Required: true,
	}

	optionChain = &cli.StringFlag{
		Name:     "chain",
		Usage:    "Chain to cancel pending transactions on, home or foreign",
		Required: true,
	}
)

func main() {
	app := &cli.App{
		Name:  "bridge-cli",
		Usage: "CLI for one-off bridge ops between the home and foreign chains",
		Commands: []*cli.Command{
			{
				Name:  "bridge-to-foreign",
				Usage: "Submit a transaction to bridge ether to the foreign chain",
				Flags: []cli.Flag{
					optionAmount,
					optionConfig,
				},
				Action: func(c *cli.Context) error {
					return bridge(c, transfer.HomeToForeign)
				},
			},
			{
				Name:  "bridge-to-home",
				Usage: "Submit a transaction to bridge ether back to the home chain",
				Flags: []cli.Flag{
					optionAmount,
					optionConfig,
				},
				Action: func(c *cli.Context) error {
					return bridge(c, transfer.ForeignToHome)
				},
			},
			{
				Name:  "cancel-pending",
				Usage: "Cancel all pending transactions for the configured account",
				Flags: []cli.Flag{
					optionChain,
					optionConfig,
				},
				Action: func(c *cli.Context) error {
					return cancelPending(c)
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.Writer, "Exited with error: %v\n", err)
		os.Exit(1)
	}
}

func bridge(c *cli.Context, direction transfer.Direction) error {
	cfg, acct := setup(c)

	amountEther := c.Float64(optionAmount.Name)
	if amountEther <= 0 {
		log.Fatal().Msg("amount must be greater than 0")
	}
	amount := scheduler.EtherToWei(amountEther)

	ctx := context.Background()
	home, foreign := dialEndpoints(ctx, cfg)
	bridger := transfer.NewBridger(home, foreign, transfer.Options{
		MsgGasLimit:    cfg.MsgGasLimit,
		OutboundBuffer: scheduler.EtherToWei(cfg.OutboundBufferEther),
		ConfirmTimeout: time.Duration(cfg.ConfirmTimeoutSec) * time.Second,
	})

	if err := bridger.Transfer(ctx, acct, direction, amount); err != nil {
		log.Fatal().Err(err).Msgf("Bridge %s failed", direction)
	}
	log.Info().Msgf("Bridged %s wei %s for account %s",
		amount.String(), direction, acct.Address.Hex())
	return nil
}

func cancelPending(c *cli.Context) error {
	cfg, acct := setup(c)

	chain := strings.ToLower(c.String(optionChain.Name))
	var rpcURL string
	switch chain {
	case "home":
		rpcURL = cfg.HomeRPCUrl
	case "foreign":
		rpcURL = cfg.ForeignRPCUrl
	default:
		log.Fatal().Msgf("chain must be home or foreign, got %q", chain)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		log.Fatal().Err(err).Msgf("failed to dial %s rpc", chain)
	}
	if err := shared.CancelPendingTxes(context.Background(), acct.PrivateKey, client); err != nil {
		log.Fatal().Err(err).Msgf("failed to cancel pending txes for %s", acct.Address.Hex())
	}
	return nil
}

func setup(c *cli.Context) (config, *accounts.Account) {
	configFilePath := c.String(optionConfig.Name)

	var cfg config
	buf, err := os.ReadFile(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read config file at: " + configFilePath)
	}

	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to unmarshal config file at: " + configFilePath)
	}

	if err := checkConfig(&cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse log level")
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	privKeyFile := cfg.PrivKeyFile
	if strings.HasPrefix(privKeyFile, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Err(err).Msg("failed to get user home dir")
		}
		privKeyFile = filepath.Join(homeDir, privKeyFile[2:])
	}

	privKey, err := crypto.LoadECDSA(privKeyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load private key")
	}

	return cfg, &accounts.Account{
		Address:    accounts.DeriveAddress(privKey),
		PrivateKey: privKey,
	}
}

func dialEndpoints(ctx context.Context, cfg config) (*transfer.Endpoint, *transfer.Endpoint) {
	home, err := transfer.DialEndpoint(
		ctx, transfer.Home, cfg.HomeRPCUrl, common.HexToAddress(cfg.HomeContractAddr))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up home endpoint")
	}
	foreign, err := transfer.DialEndpoint(
		ctx, transfer.Foreign, cfg.ForeignRPCUrl, common.HexToAddress(cfg.ForeignContractAddr))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up foreign endpoint")
	}
	checkChainID(home, cfg.HomeChainID)
	checkChainID(foreign, cfg.ForeignChainID)
	return home, foreign
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

type config struct {
	PrivKeyFile         string  `yaml:"priv_key_file"`
	LogLevel            string  `yaml:"log_level"`
	HomeRPCUrl          string  `yaml:"home_rpc_url"`
	ForeignRPCUrl       string  `yaml:"foreign_rpc_url"`
	HomeChainID         int64   `yaml:"home_chain_id"`
	ForeignChainID      int64   `yaml:"foreign_chain_id"`
	HomeContractAddr    string  `yaml:"home_contract_addr"`
	ForeignContractAddr string  `yaml:"foreign_contract_addr"`
	MsgGasLimit         uint64  `yaml:"msg_gas_limit"`
	OutboundBufferEther float64 `yaml:"outbound_buffer_ether"`
	ConfirmTimeoutSec   int64   `yaml:"confirm_timeout_sec"`
}

func checkConfig(cfg *config) error {
	if cfg.PrivKeyFile == "" {
		return fmt.Errorf("priv_key_file is required")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HomeRPCUrl == "" || cfg.ForeignRPCUrl == "" {
		return fmt.Errorf("both home_rpc_url and foreign_rpc_url are required")
	}
	if !common.IsHexAddress(cfg.HomeContractAddr) || !common.IsHexAddress(cfg.ForeignContractAddr) {
		return fmt.Errorf("both home_contract_addr and foreign_contract_addr must be valid hex addresses")
	}
	if cfg.MsgGasLimit == 0 {
		cfg.MsgGasLimit = 168000
	}
	if cfg.OutboundBufferEther == 0 {
		cfg.OutboundBufferEther = 0.0001
	}
	return nil
}
