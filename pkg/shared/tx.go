package shared

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
)

const (
	// Generous static limit, the messenger call is far below it.
	defaultGasLimit = uint64(3000000)

	cancelGasLimit    = uint64(21000)
	cancelSendRetries = 5
	cancelWaitBound   = 60 * time.Second
)

// CreateTransactOpts builds keyed transact opts for the account's next pending
// nonce using the node's current fee suggestions.
func CreateTransactOpts(
	ctx context.Context,
	privateKey *ecdsa.PrivateKey,
	srcChainID *big.Int,
	srcClient EthClient,
) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, srcChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	nonce, err := srcClient.PendingNonceAt(ctx, auth.From)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending nonce: %w", err)
	}
	auth.Nonce = big.NewInt(int64(nonce))

	// Priority fee per gas.
	gasTip, err := srcClient.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	// Priority fee per gas + base fee per gas.
	gasPrice, err := srcClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	auth.GasTipCap = gasTip
	auth.GasFeeCap = gasPrice
	auth.GasLimit = defaultGasLimit
	return auth, nil
}

// CancelPendingTxes replaces every stuck transaction for the signing account
// with a zero-value self-transfer, then blocks until the pending nonce
// converges with the latest one or cancelWaitBound elapses.
func CancelPendingTxes(ctx context.Context, privateKey *ecdsa.PrivateKey, rawClient EthClient) error {
	if err := replacePendingTxes(ctx, privateKey, rawClient); err != nil {
		return err
	}
	deadline := time.Now().Add(cancelWaitBound)
	for time.Now().Before(deadline) {
		exist, err := PendingTransactionsExist(ctx, privateKey, rawClient)
		if err != nil {
			return fmt.Errorf("failed to check pending transactions: %w", err)
		}
		if !exist {
			log.Info().Msg("All pending transactions for signing account have been cancelled")
			return nil
		}
		if err := Sleep(ctx, time.Second); err != nil {
			return err
		}
	}
	return fmt.Errorf("timeout: failed to cancel all pending transactions")
}

func replacePendingTxes(ctx context.Context, privateKey *ecdsa.PrivateKey, rawClient EthClient) error {
	chainID, err := rawClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	from := crypto.PubkeyToAddress(privateKey.PublicKey)

	pendingNonce, latestNonce, err := nonceGap(ctx, from, rawClient)
	if err != nil {
		return err
	}
	if pendingNonce <= latestNonce {
		log.Info().Msg("No pending transactions to cancel")
		return nil
	}
	log.Debug().Msgf("Cancelling nonces %d through %d for %s", latestNonce, pendingNonce-1, from.Hex())

	suggestedGasPrice, err := rawClient.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get suggested gas price: %w", err)
	}

	signer := types.NewEIP155Signer(chainID)
	for nonce := latestNonce; nonce < pendingNonce; nonce++ {
		if err := sendReplacement(ctx, rawClient, signer, privateKey, from, nonce, suggestedGasPrice); err != nil {
			return err
		}
	}
	return nil
}

// sendReplacement submits one cancellation tx for nonce, bumping the gas
// price by 10% plus one wei each time the node rejects it as a duplicate or
// underpriced replacement.
func sendReplacement(
	ctx context.Context,
	rawClient EthClient,
	signer types.Signer,
	privateKey *ecdsa.PrivateKey,
	from common.Address,
	nonce uint64,
	suggestedGasPrice *big.Int,
) error {
	gasPrice := new(big.Int).Set(suggestedGasPrice)
	for retry := 0; retry < cancelSendRetries; retry++ {
		if retry > 0 {
			bump := new(big.Int).Div(gasPrice, big.NewInt(10))
			gasPrice.Add(gasPrice, bump)
			gasPrice.Add(gasPrice, big.NewInt(1))
		}

		tx := types.NewTransaction(nonce, from, big.NewInt(0), cancelGasLimit, gasPrice, nil)
		signedTx, err := types.SignTx(tx, signer, privateKey)
		if err != nil {
			return fmt.Errorf("failed to sign cancellation transaction for nonce %d: %w", nonce, err)
		}

		switch err := rawClient.SendTransaction(ctx, signedTx); {
		case err == nil:
			log.Info().Msgf("Sent cancel transaction for nonce %d with tx hash: %s, gas price: %s wei",
				nonce, signedTx.Hash().Hex(), gasPrice.String())
			return nil
		case err.Error() == "replacement transaction underpriced" || err.Error() == "already known":
			log.Warn().Err(err).Msgf("Retry %d: cancel transaction for nonce %d rejected, increasing gas price", retry+1, nonce)
		default:
			return fmt.Errorf("failed to send cancellation transaction for nonce %d: %w", nonce, err)
		}
	}
	return fmt.Errorf("gave up cancelling nonce %d after %d retries", nonce, cancelSendRetries)
}

func nonceGap(ctx context.Context, from common.Address, rawClient EthClient) (pending uint64, latest uint64, err error) {
	pending, err = rawClient.PendingNonceAt(ctx, from)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get current pending nonce: %w", err)
	}
	latest, err = rawClient.NonceAt(ctx, from, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get latest nonce: %w", err)
	}
	return pending, latest, nil
}

// PendingTransactionsExist reports whether the signing account has any
// submitted-but-unmined transactions.
func PendingTransactionsExist(ctx context.Context, privateKey *ecdsa.PrivateKey, rawClient EthClient) (bool, error) {
	from := crypto.PubkeyToAddress(privateKey.PublicKey)
	pending, latest, err := nonceGap(ctx, from, rawClient)
	if err != nil {
		return false, err
	}
	return pending > latest, nil
}
