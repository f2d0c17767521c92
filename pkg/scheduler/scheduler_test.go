package scheduler

import (
	"math/big"
	"testing"
	"time"

	"bridge-emulator/pkg/accounts"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() *accounts.Account {
	return &accounts.Account{Address: common.HexToAddress("0x1111111111111111111111111111111111111111")}
}

func TestQuotaEnforced(t *testing.T) {
	s := New(Config{MaxDailyOps: 2})
	acct := testAccount()
	now := time.Now()

	require.True(t, s.IsEligible(acct, now))
	s.RecordAttempt(acct, now, true)
	require.True(t, s.IsEligible(acct, now))
	s.RecordAttempt(acct, now, true)

	assert.False(t, s.IsEligible(acct, now))
	assert.Equal(t, 2, acct.BridgeCount)
}

func TestFailureDoesNotConsumeQuota(t *testing.T) {
	s := New(Config{MaxDailyOps: 1})
	acct := testAccount()
	now := time.Now()

	require.True(t, s.IsEligible(acct, now))
	s.RecordAttempt(acct, now, false)

	assert.Equal(t, 0, acct.BridgeCount)
	assert.Equal(t, 1, acct.ConsecutiveFailures)
	assert.True(t, s.IsEligible(acct, now))
}

func TestLazyQuotaReset(t *testing.T) {
	s := New(Config{MaxDailyOps: 1})
	acct := testAccount()
	start := time.Now()

	require.True(t, s.IsEligible(acct, start))
	s.RecordAttempt(acct, start, true)
	require.False(t, s.IsEligible(acct, start))

	// Still exhausted before the window elapses.
	require.False(t, s.IsEligible(acct, start.Add(23*time.Hour)))

	later := start.Add(25 * time.Hour)
	require.True(t, s.IsEligible(acct, later))
	assert.Equal(t, 0, acct.BridgeCount)
	assert.Equal(t, later, acct.LastReset)
}

func TestResetIdempotentAtSameInstant(t *testing.T) {
	s := New(Config{MaxDailyOps: 2})
	acct := testAccount()
	start := time.Now()

	require.True(t, s.IsEligible(acct, start))
	s.RecordAttempt(acct, start, true)

	later := start.Add(25 * time.Hour)
	require.True(t, s.IsEligible(acct, later))
	s.RecordAttempt(acct, later, true)

	// A second check at the same instant must not grant a fresh window.
	require.True(t, s.IsEligible(acct, later))
	assert.Equal(t, 1, acct.BridgeCount)
}

func TestFirstCheckStartsWindow(t *testing.T) {
	s := New(Config{})
	acct := testAccount()
	now := time.Now()

	require.True(t, acct.LastReset.IsZero())
	require.True(t, s.IsEligible(acct, now))
	assert.Equal(t, now, acct.LastReset)
}

func TestSuspensionAfterConsecutiveFailures(t *testing.T) {
	s := New(Config{SuspendAfter: 3, SuspensionPeriod: time.Hour})
	acct := testAccount()
	now := time.Now()

	s.RecordAttempt(acct, now, false)
	s.RecordAttempt(acct, now, false)
	require.True(t, acct.SuspendedUntil.IsZero())
	s.RecordAttempt(acct, now, false)
	require.False(t, acct.SuspendedUntil.IsZero())

	assert.True(t, s.IsSuspended(acct, now.Add(59*time.Minute)))
	assert.False(t, s.IsEligible(acct, now.Add(59*time.Minute)))

	// Expiry clears the streak and the account is eligible again.
	assert.False(t, s.IsSuspended(acct, now.Add(61*time.Minute)))
	assert.True(t, s.IsEligible(acct, now.Add(61*time.Minute)))
	assert.Equal(t, 0, acct.ConsecutiveFailures)
}

func TestSuccessClearsFailureStreak(t *testing.T) {
	s := New(Config{SuspendAfter: 3})
	acct := testAccount()
	now := time.Now()

	s.RecordAttempt(acct, now, false)
	s.RecordAttempt(acct, now, false)
	s.RecordAttempt(acct, now, true)
	assert.Equal(t, 0, acct.ConsecutiveFailures)

	s.RecordAttempt(acct, now, false)
	assert.True(t, acct.SuspendedUntil.IsZero())
}

func TestAttemptStateTransitions(t *testing.T) {
	s := New(Config{})
	acct := testAccount()

	require.Equal(t, accounts.Idle, acct.State)
	s.BeginAttempt(acct)
	assert.Equal(t, accounts.Attempting, acct.State)
	s.RecordAttempt(acct, time.Now(), true)
	assert.Equal(t, accounts.Idle, acct.State)
}

func TestPickAmountRangeAndPrecision(t *testing.T) {
	s := New(Config{MinAmountMicro: 200, MaxAmountMicro: 10000})
	lo := big.NewInt(200 * weiPerMicroEther)
	hi := big.NewInt(10000 * weiPerMicroEther)
	step := big.NewInt(weiPerMicroEther)

	for i := 0; i < 500; i++ {
		amount := s.PickAmount()
		assert.True(t, amount.Cmp(lo) >= 0, "amount %s below minimum", amount)
		assert.True(t, amount.Cmp(hi) <= 0, "amount %s above maximum", amount)
		assert.Equal(t, 0, new(big.Int).Mod(amount, step).Sign(),
			"amount %s is not a micro ether multiple", amount)
	}
}

func TestPickAmountDegenerateRange(t *testing.T) {
	s := New(Config{MinAmountMicro: 777, MaxAmountMicro: 777})
	want := big.NewInt(777 * weiPerMicroEther)
	for i := 0; i < 10; i++ {
		assert.Equal(t, want.String(), s.PickAmount().String())
	}
}

func TestPickDelayRange(t *testing.T) {
	s := New(Config{MinDelay: 5 * time.Millisecond, MaxDelay: 25 * time.Millisecond})
	for i := 0; i < 500; i++ {
		d := s.PickDelay()
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.LessOrEqual(t, d, 25*time.Millisecond)
	}
}

func TestPickDelayDegenerateRange(t *testing.T) {
	s := New(Config{MinDelay: time.Second, MaxDelay: time.Second})
	assert.Equal(t, time.Second, s.PickDelay())
}

func TestEtherConversions(t *testing.T) {
	assert.Equal(t, int64(200), EtherToMicro(0.0002))
	assert.Equal(t, int64(10000), EtherToMicro(0.01))
	assert.Equal(t, "200000000000000", EtherToWei(0.0002).String())
	assert.Equal(t, "10000000000000000", EtherToWei(0.01).String())
	assert.Equal(t, "1500000000000000000", EtherToWei(1.5).String())
	assert.Equal(t, "0", EtherToWei(0).String())
}

func TestNewDefaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, 5, s.cfg.MaxDailyOps)
	assert.Equal(t, int64(200), s.cfg.MinAmountMicro)
	assert.Equal(t, int64(10000), s.cfg.MaxAmountMicro)
	assert.Equal(t, 5*time.Minute, s.cfg.MinDelay)
	assert.Equal(t, 25*time.Minute, s.cfg.MaxDelay)
	assert.Equal(t, 24*time.Hour, s.cfg.ResetInterval)
	assert.Equal(t, 3, s.cfg.SuspendAfter)
	assert.Equal(t, time.Hour, s.cfg.SuspensionPeriod)
}
