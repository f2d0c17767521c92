package scheduler

import (
	"math"
	"math/big"
	"math/rand"
	"time"

	"bridge-emulator/pkg/accounts"

	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog/log"
)

// Bridge amounts are whole multiples of a micro ether, so configured ranges
// are honored at exactly six decimal places.
const weiPerMicroEther = params.Ether / 1e6

type Config struct {
	// MaxDailyOps is the number of successful bridge ops each account may
	// perform per reset window.
	MaxDailyOps    int
	MinAmountMicro int64 // inclusive, in micro ether
	MaxAmountMicro int64 // inclusive, in micro ether
	MinDelay       time.Duration
	MaxDelay       time.Duration
	ResetInterval  time.Duration
	// SuspendAfter consecutive failures park the account for SuspensionPeriod.
	SuspendAfter     int
	SuspensionPeriod time.Duration
}

type Scheduler struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config) *Scheduler {
	if cfg.MaxDailyOps <= 0 {
		cfg.MaxDailyOps = 5
	}
	if cfg.MinAmountMicro <= 0 {
		cfg.MinAmountMicro = 200 // 0.0002 ether
	}
	if cfg.MaxAmountMicro <= 0 {
		cfg.MaxAmountMicro = 10000 // 0.01 ether
	}
	if cfg.MaxAmountMicro < cfg.MinAmountMicro {
		cfg.MaxAmountMicro = cfg.MinAmountMicro
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = 5 * time.Minute
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 25 * time.Minute
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if cfg.ResetInterval <= 0 {
		cfg.ResetInterval = 24 * time.Hour
	}
	if cfg.SuspendAfter <= 0 {
		cfg.SuspendAfter = 3
	}
	if cfg.SuspensionPeriod <= 0 {
		cfg.SuspensionPeriod = time.Hour
	}
	return &Scheduler{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Scheduler) MaxDailyOps() int { return s.cfg.MaxDailyOps }

// IsEligible reports whether acct may start a bridge op at now. It applies the
// lazy quota reset, so a call may mutate the account's window state.
func (s *Scheduler) IsEligible(acct *accounts.Account, now time.Time) bool {
	if s.IsSuspended(acct, now) {
		return false
	}
	s.maybeReset(acct, now)
	return acct.BridgeCount < s.cfg.MaxDailyOps
}

// IsSuspended reports whether acct is parked after repeated failures. An
// expired suspension is cleared along with the failure streak.
func (s *Scheduler) IsSuspended(acct *accounts.Account, now time.Time) bool {
	if acct.SuspendedUntil.IsZero() {
		return false
	}
	if now.Before(acct.SuspendedUntil) {
		return true
	}
	acct.SuspendedUntil = time.Time{}
	acct.ConsecutiveFailures = 0
	return false
}

func (s *Scheduler) maybeReset(acct *accounts.Account, now time.Time) {
	if acct.LastReset.IsZero() {
		// First eligibility check starts the window.
		acct.LastReset = now
		return
	}
	if now.Sub(acct.LastReset) >= s.cfg.ResetInterval {
		log.Debug().Msgf("Quota reset for account %s, %d ops bridged in previous window",
			acct.Address.Hex(), acct.BridgeCount)
		acct.BridgeCount = 0
		acct.LastReset = now
	}
}

func (s *Scheduler) BeginAttempt(acct *accounts.Account) {
	acct.State = accounts.Attempting
}

// RecordAttempt folds a bridge op outcome into the account. Only success
// consumes quota. Failures build toward suspension instead.
func (s *Scheduler) RecordAttempt(acct *accounts.Account, now time.Time, success bool) {
	acct.State = accounts.Idle
	if success {
		acct.BridgeCount++
		acct.ConsecutiveFailures = 0
		return
	}
	acct.ConsecutiveFailures++
	if acct.ConsecutiveFailures >= s.cfg.SuspendAfter {
		acct.SuspendedUntil = now.Add(s.cfg.SuspensionPeriod)
		log.Warn().Msgf("Account %s suspended until %s after %d consecutive failures",
			acct.Address.Hex(), acct.SuspendedUntil.Format(time.RFC3339), acct.ConsecutiveFailures)
	}
}

// PickAmount draws a uniform random bridge amount in wei from the configured
// inclusive micro-ether range.
func (s *Scheduler) PickAmount() *big.Int {
	micro := s.cfg.MinAmountMicro
	if span := s.cfg.MaxAmountMicro - s.cfg.MinAmountMicro; span > 0 {
		micro += s.rng.Int63n(span + 1)
	}
	return new(big.Int).Mul(big.NewInt(micro), big.NewInt(weiPerMicroEther))
}

// PickDelay draws a uniform random wait from the configured inclusive range.
func (s *Scheduler) PickDelay() time.Duration {
	d := s.cfg.MinDelay
	if span := s.cfg.MaxDelay - s.cfg.MinDelay; span > 0 {
		d += time.Duration(s.rng.Int63n(int64(span) + 1))
	}
	return d
}

// EtherToMicro converts a human ether amount to whole micro ether.
func EtherToMicro(ether float64) int64 {
	return int64(math.Round(ether * 1e6))
}

// EtherToWei converts a human ether amount to wei, rounded to micro-ether
// precision.
func EtherToWei(ether float64) *big.Int {
	return new(big.Int).Mul(big.NewInt(EtherToMicro(ether)), big.NewInt(weiPerMicroEther))
}
