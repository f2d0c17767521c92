package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"bridge-emulator/pkg/accounts"
	"bridge-emulator/pkg/gateway"
	"bridge-emulator/pkg/shared"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	ErrChainRejection      = errors.New("transaction reverted on chain")
)

type Chain int

const (
	Home Chain = iota
	Foreign
)

func (c Chain) String() string {
	switch c {
	case Home:
		return "Home"
	case Foreign:
		return "Foreign"
	default:
		return "unknown"
	}
}

type Direction int

const (
	HomeToForeign Direction = iota
	ForeignToHome
)

func (d Direction) String() string {
	switch d {
	case HomeToForeign:
		return "HomeToForeign"
	case ForeignToHome:
		return "ForeignToHome"
	default:
		return "unknown"
	}
}

func (d Direction) Reverse() Direction {
	if d == HomeToForeign {
		return ForeignToHome
	}
	return HomeToForeign
}

type messengerTransactor interface {
	SendMessage(opts *bind.TransactOpts, to common.Address, value *big.Int, message []byte,
		gasLimit *big.Int, destChainId uint64, callback common.Address) (*types.Transaction, error)
}

// Endpoint is one side of the bridge: a dialed node plus the messenger
// contract deployed on it.
type Endpoint struct {
	Chain     Chain
	Client    shared.EthClient
	ChainID   *big.Int
	messenger messengerTransactor
}

func DialEndpoint(ctx context.Context, chain Chain, rpcURL string, contractAddr common.Address) (*Endpoint, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s rpc: %w", chain, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s chain id: %w", chain, err)
	}
	log.Debug().Msgf("%s chain id: %s", chain, chainID.String())

	messenger, err := gateway.NewMessengerTransactor(contractAddr, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s messenger transactor: %w", chain, err)
	}
	return &Endpoint{
		Chain:     chain,
		Client:    client,
		ChainID:   chainID,
		messenger: messenger,
	}, nil
}

type Options struct {
	// MsgGasLimit is forwarded to the messenger on home->foreign sends.
	// Foreign->home sends pass 0.
	MsgGasLimit uint64
	// OutboundBuffer is extra wei attached on top of the bridged amount on
	// home->foreign sends.
	OutboundBuffer      *big.Int
	ConfirmTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

type Bridger struct {
	home    *Endpoint
	foreign *Endpoint
	opts    Options
}

func NewBridger(home *Endpoint, foreign *Endpoint, opts Options) *Bridger {
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 120 * time.Second
	}
	if opts.ReceiptPollInterval <= 0 {
		opts.ReceiptPollInterval = 5 * time.Second
	}
	if opts.OutboundBuffer == nil {
		opts.OutboundBuffer = big.NewInt(0)
	}
	return &Bridger{home: home, foreign: foreign, opts: opts}
}

func (b *Bridger) endpoints(direction Direction) (src *Endpoint, dest *Endpoint) {
	if direction == HomeToForeign {
		return b.home, b.foreign
	}
	return b.foreign, b.home
}

// Transfer bridges amount wei for acct in the given direction and blocks until
// the send transaction is confirmed on the source chain, or fails.
func (b *Bridger) Transfer(
	ctx context.Context,
	acct *accounts.Account,
	direction Direction,
	amount *big.Int,
) error {
	src, dest := b.endpoints(direction)

	value := new(big.Int).Set(amount)
	msgGasLimit := big.NewInt(0)
	if direction == HomeToForeign {
		value.Add(value, b.opts.OutboundBuffer)
		msgGasLimit = new(big.Int).SetUint64(b.opts.MsgGasLimit)
	}

	balance, err := src.Client.BalanceAt(ctx, acct.Address, nil)
	if err != nil {
		return fmt.Errorf("failed to get %s balance: %w", src.Chain, err)
	}
	if balance.Cmp(value) < 0 {
		return fmt.Errorf("%w: account %s has %s wei on %s, tx needs %s wei",
			ErrInsufficientFunds, acct.Address.Hex(), balance.String(), src.Chain, value.String())
	}

	opts, err := shared.CreateTransactOpts(ctx, acct.PrivateKey, src.ChainID, src.Client)
	if err != nil {
		return fmt.Errorf("failed to get transact opts: %w", err)
	}

	// Important: tx value must cover the amount passed to the messenger,
	// otherwise the send fails on the source chain.
	opts.Value = value

	tx, err := src.messenger.SendMessage(
		opts,
		acct.Address,
		amount,
		[]byte{},
		msgGasLimit,
		dest.ChainID.Uint64(),
		acct.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to send bridge message: %w", err)
	}
	log.Debug().Msgf("Bridge tx sent, hash: %s, direction: %s, account: %s, amount: %d wei",
		tx.Hash().Hex(), direction, acct.Address.Hex(), amount)

	return b.waitConfirmation(ctx, src, tx, direction)
}

// Wait for the send transaction to be included in a block, or timeout.
func (b *Bridger) waitConfirmation(
	ctx context.Context,
	src *Endpoint,
	tx *types.Transaction,
	direction Direction,
) error {
	idx := 0
	timeoutCount := int(b.opts.ConfirmTimeout / b.opts.ReceiptPollInterval)
	if timeoutCount < 1 {
		timeoutCount = 1
	}
	for {
		if idx >= timeoutCount {
			return fmt.Errorf("%w: bridge tx %s not confirmed on %s after %s",
				ErrConfirmationTimeout, tx.Hash().Hex(), src.Chain, b.opts.ConfirmTimeout)
		}
		receipt, err := src.Client.TransactionReceipt(ctx, tx.Hash())
		if receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("%w: bridge tx %s included in block %s with status %d",
					ErrChainRejection, tx.Hash().Hex(), receipt.BlockNumber, receipt.Status)
			}
			log.Info().Msgf("Bridge tx included in block %s, hash: %s, direction: %s",
				receipt.BlockNumber, receipt.TxHash.Hex(), direction)
			return nil
		}
		if err != nil && err.Error() != "not found" {
			return fmt.Errorf("error getting receipt for bridge tx: %w", err)
		}
		idx++
		if err := shared.Sleep(ctx, b.opts.ReceiptPollInterval); err != nil {
			return err
		}
	}
}
