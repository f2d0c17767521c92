package transfer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"bridge-emulator/pkg/accounts"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	balance    *big.Int
	receipt    *types.Receipt
	receiptErr error
}

func (f *fakeClient) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (f *fakeClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2), nil
}

func (f *fakeClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error { return nil }

func (f *fakeClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	if f.receipt != nil {
		return f.receipt, nil
	}
	return nil, errors.New("not found")
}

type fakeMessenger struct {
	lastOpts     *bind.TransactOpts
	lastTo       common.Address
	lastValue    *big.Int
	lastMessage  []byte
	lastGasLimit *big.Int
	lastDest     uint64
	lastCallback common.Address
	err          error
}

func (f *fakeMessenger) SendMessage(opts *bind.TransactOpts, to common.Address, value *big.Int, message []byte,
	gasLimit *big.Int, destChainId uint64, callback common.Address) (*types.Transaction, error) {
	f.lastOpts = opts
	f.lastTo = to
	f.lastValue = value
	f.lastMessage = message
	f.lastGasLimit = gasLimit
	f.lastDest = destChainId
	f.lastCallback = callback
	if f.err != nil {
		return nil, f.err
	}
	return types.NewTransaction(0, to, value, 21000, big.NewInt(1), nil), nil
}

func testAccount(t *testing.T) *accounts.Account {
	t.Helper()
	privKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &accounts.Account{
		Address:    crypto.PubkeyToAddress(privKey.PublicKey),
		PrivateKey: privKey,
	}
}

func newTestBridger(homeClient, foreignClient *fakeClient, homeMsgr, foreignMsgr *fakeMessenger, opts Options) *Bridger {
	home := &Endpoint{Chain: Home, Client: homeClient, ChainID: big.NewInt(31337), messenger: homeMsgr}
	foreign := &Endpoint{Chain: Foreign, Client: foreignClient, ChainID: big.NewInt(31338), messenger: foreignMsgr}
	return NewBridger(home, foreign, opts)
}

func confirmedReceipt() *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(12),
	}
}

func TestTransferHomeToForeign(t *testing.T) {
	acct := testAccount(t)
	homeClient := &fakeClient{balance: big.NewInt(params.Ether), receipt: confirmedReceipt()}
	foreignClient := &fakeClient{balance: big.NewInt(0)}
	homeMsgr := &fakeMessenger{}
	foreignMsgr := &fakeMessenger{}
	b := newTestBridger(homeClient, foreignClient, homeMsgr, foreignMsgr, Options{
		MsgGasLimit:         168000,
		OutboundBuffer:      big.NewInt(5000),
		ConfirmTimeout:      time.Second,
		ReceiptPollInterval: time.Millisecond,
	})

	amount := big.NewInt(2000000)
	require.NoError(t, b.Transfer(context.Background(), acct, HomeToForeign, amount))

	require.NotNil(t, homeMsgr.lastOpts)
	assert.Nil(t, foreignMsgr.lastOpts)
	assert.Equal(t, acct.Address, homeMsgr.lastTo)
	assert.Equal(t, acct.Address, homeMsgr.lastCallback)
	assert.Equal(t, amount.String(), homeMsgr.lastValue.String())
	assert.Empty(t, homeMsgr.lastMessage)
	assert.Equal(t, uint64(168000), homeMsgr.lastGasLimit.Uint64())
	assert.Equal(t, uint64(31338), homeMsgr.lastDest)
	// Attached value covers the amount plus the outbound buffer.
	assert.Equal(t, "2005000", homeMsgr.lastOpts.Value.String())
}

func TestTransferForeignToHome(t *testing.T) {
	acct := testAccount(t)
	homeClient := &fakeClient{balance: big.NewInt(0)}
	foreignClient := &fakeClient{balance: big.NewInt(params.Ether), receipt: confirmedReceipt()}
	homeMsgr := &fakeMessenger{}
	foreignMsgr := &fakeMessenger{}
	b := newTestBridger(homeClient, foreignClient, homeMsgr, foreignMsgr, Options{
		MsgGasLimit:         168000,
		OutboundBuffer:      big.NewInt(5000),
		ConfirmTimeout:      time.Second,
		ReceiptPollInterval: time.Millisecond,
	})

	amount := big.NewInt(2000000)
	require.NoError(t, b.Transfer(context.Background(), acct, ForeignToHome, amount))

	require.NotNil(t, foreignMsgr.lastOpts)
	assert.Nil(t, homeMsgr.lastOpts)
	assert.Equal(t, uint64(31337), foreignMsgr.lastDest)
	// Return direction attaches the amount exactly and passes no gas stipend.
	assert.Equal(t, amount.String(), foreignMsgr.lastOpts.Value.String())
	assert.Equal(t, 0, foreignMsgr.lastGasLimit.Sign())
}

func TestTransferInsufficientFunds(t *testing.T) {
	acct := testAccount(t)
	homeClient := &fakeClient{balance: big.NewInt(10)}
	homeMsgr := &fakeMessenger{}
	b := newTestBridger(homeClient, &fakeClient{}, homeMsgr, &fakeMessenger{}, Options{})

	err := b.Transfer(context.Background(), acct, HomeToForeign, big.NewInt(2000000))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	// Nothing submitted.
	assert.Nil(t, homeMsgr.lastOpts)
}

func TestTransferChainRejection(t *testing.T) {
	acct := testAccount(t)
	homeClient := &fakeClient{
		balance: big.NewInt(params.Ether),
		receipt: &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(12)},
	}
	b := newTestBridger(homeClient, &fakeClient{}, &fakeMessenger{}, &fakeMessenger{}, Options{
		ConfirmTimeout:      time.Second,
		ReceiptPollInterval: time.Millisecond,
	})

	err := b.Transfer(context.Background(), acct, HomeToForeign, big.NewInt(2000000))
	require.ErrorIs(t, err, ErrChainRejection)
}

func TestTransferConfirmationTimeout(t *testing.T) {
	acct := testAccount(t)
	homeClient := &fakeClient{balance: big.NewInt(params.Ether)}
	b := newTestBridger(homeClient, &fakeClient{}, &fakeMessenger{}, &fakeMessenger{}, Options{
		ConfirmTimeout:      10 * time.Millisecond,
		ReceiptPollInterval: time.Millisecond,
	})

	err := b.Transfer(context.Background(), acct, HomeToForeign, big.NewInt(2000000))
	require.ErrorIs(t, err, ErrConfirmationTimeout)
}

func TestTransferReceiptNetworkError(t *testing.T) {
	acct := testAccount(t)
	homeClient := &fakeClient{
		balance:    big.NewInt(params.Ether),
		receiptErr: errors.New("connection refused"),
	}
	b := newTestBridger(homeClient, &fakeClient{}, &fakeMessenger{}, &fakeMessenger{}, Options{
		ConfirmTimeout:      time.Second,
		ReceiptPollInterval: time.Millisecond,
	})

	err := b.Transfer(context.Background(), acct, HomeToForeign, big.NewInt(2000000))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfirmationTimeout)
	assert.NotErrorIs(t, err, ErrChainRejection)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewBridgerDefaults(t *testing.T) {
	b := NewBridger(&Endpoint{}, &Endpoint{}, Options{})
	assert.Equal(t, 120*time.Second, b.opts.ConfirmTimeout)
	assert.Equal(t, 5*time.Second, b.opts.ReceiptPollInterval)
	require.NotNil(t, b.opts.OutboundBuffer)
	assert.Equal(t, 0, b.opts.OutboundBuffer.Sign())
}

func TestDirectionReverse(t *testing.T) {
	assert.Equal(t, ForeignToHome, HomeToForeign.Reverse())
	assert.Equal(t, HomeToForeign, ForeignToHome.Reverse())
}
