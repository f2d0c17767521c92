package emulator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"bridge-emulator/pkg/accounts"
	"bridge-emulator/pkg/scheduler"
	"bridge-emulator/pkg/shared"
	"bridge-emulator/pkg/stats"
	"bridge-emulator/pkg/transfer"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Bridger is the subset of transfer.Bridger the cycle loop needs.
type Bridger interface {
	Transfer(ctx context.Context, acct *accounts.Account, direction transfer.Direction, amount *big.Int) error
}

type Options struct {
	Accounts  []*accounts.Account
	Scheduler *scheduler.Scheduler
	Bridger   Bridger
	Stats     *stats.Stats
	// CycleDelay is the wait between full passes over all accounts.
	CycleDelay time.Duration
	// RetryDelay is the base wait after a failed pass. The actual backoff is
	// twice this.
	RetryDelay time.Duration
}

type Emulator struct {
	accts   []*accounts.Account
	sched   *scheduler.Scheduler
	bridger Bridger
	stats   *stats.Stats

	cycleDelay time.Duration
	retryDelay time.Duration
}

func New(opts *Options) *Emulator {
	cycleDelay := opts.CycleDelay
	if cycleDelay <= 0 {
		cycleDelay = 20 * time.Hour
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 30 * time.Minute
	}
	return &Emulator{
		accts:      opts.Accounts,
		sched:      opts.Scheduler,
		bridger:    opts.Bridger,
		stats:      opts.Stats,
		cycleDelay: cycleDelay,
		retryDelay: retryDelay,
	}
}

// Run drives bridge cycles until ctx is cancelled. A failed cycle is retried
// after an extended backoff instead of terminating the process.
func (e *Emulator) Run(ctx context.Context) {
	for {
		err := e.RunCycle(ctx)
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			backoff := 2 * e.retryDelay
			log.Error().Err(err).Msgf("Cycle failed, retrying in %s", backoff)
			if shared.Sleep(ctx, backoff) != nil {
				break
			}
			continue
		}
		e.stats.LogSummary()
		log.Info().Msgf("Cycle complete, next cycle starts in %s", e.cycleDelay)
		if shared.Sleep(ctx, e.cycleDelay) != nil {
			break
		}
	}
	log.Info().Msg("Emulator shutting down")
}

// RunCycle performs one pass over all accounts. A panic inside the pass is
// returned as an error so the caller can back off and retry.
func (e *Emulator) RunCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	log.Info().Msgf("Starting bridge cycle over %d accounts", len(e.accts))
	for i, acct := range e.accts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		now := time.Now()
		if !e.sched.IsEligible(acct, now) {
			e.logSkip(acct, now)
			continue
		}
		if err := e.bridgeAccount(ctx, acct, i == len(e.accts)-1); err != nil {
			return err
		}
	}
	return nil
}

// bridgeAccount runs round trips for one account until its quota is spent.
// The returned error is non-nil only on shutdown.
func (e *Emulator) bridgeAccount(ctx context.Context, acct *accounts.Account, lastAccount bool) error {
	maxOps := e.sched.MaxDailyOps()
	for i := 0; i < maxOps; i++ {
		if !e.sched.IsEligible(acct, time.Now()) {
			break
		}
		// One amount per round trip, bridged out and back.
		amount := e.sched.PickAmount()
		if err := e.attempt(ctx, acct, transfer.HomeToForeign, amount); err != nil {
			return err
		}
		if err := e.pause(ctx); err != nil {
			return err
		}
		// The return leg spends quota too, so it gets its own gate. An odd
		// quota leaves the final return leg unspent.
		if !e.sched.IsEligible(acct, time.Now()) {
			break
		}
		if err := e.attempt(ctx, acct, transfer.ForeignToHome, amount); err != nil {
			return err
		}
		if lastAccount && (i == maxOps-1 || !e.sched.IsEligible(acct, time.Now())) {
			// Nothing follows in this cycle, drop the trailing delay.
			continue
		}
		if err := e.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emulator) attempt(
	ctx context.Context,
	acct *accounts.Account,
	direction transfer.Direction,
	amount *big.Int,
) error {
	e.sched.BeginAttempt(acct)
	start := time.Now()
	err := e.bridger.Transfer(ctx, acct, direction, amount)
	elapsed := time.Since(start)

	if err != nil && ctx.Err() != nil {
		// Shutdown mid-attempt is not an outcome.
		acct.State = accounts.Idle
		return ctx.Err()
	}

	success := err == nil
	e.sched.RecordAttempt(acct, time.Now(), success)
	e.stats.RecordAttempt(ctx, direction, acct.Address, success, amount, elapsed)

	if err != nil {
		logAttemptFailure(acct, direction, amount, err)
		return nil
	}
	log.Info().Msgf("Bridged %s wei %s for account %s in %s",
		amount.String(), direction, acct.Address.Hex(), elapsed.Round(time.Millisecond))
	return nil
}

func (e *Emulator) pause(ctx context.Context) error {
	delay := e.sched.PickDelay()
	log.Debug().Msgf("Waiting %s before next bridge op", delay.Round(time.Second))
	return shared.Sleep(ctx, delay)
}

func (e *Emulator) logSkip(acct *accounts.Account, now time.Time) {
	if e.sched.IsSuspended(acct, now) {
		log.Warn().Msgf("Skipping account %s, suspended until %s",
			acct.Address.Hex(), acct.SuspendedUntil.Format(time.RFC3339))
		return
	}
	log.Warn().Msgf("Skipping account %s, daily quota of %d ops exhausted",
		acct.Address.Hex(), e.sched.MaxDailyOps())
}

func logAttemptFailure(acct *accounts.Account, direction transfer.Direction, amount *big.Int, err error) {
	var event *zerolog.Event
	if errors.Is(err, transfer.ErrInsufficientFunds) || errors.Is(err, transfer.ErrConfirmationTimeout) {
		event = log.Warn()
	} else {
		event = log.Error()
	}
	event.Err(err).Msgf("Bridge attempt failed, direction: %s, account: %s, amount: %s wei",
		direction, acct.Address.Hex(), amount.String())
}
