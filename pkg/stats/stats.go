package stats

import (
	"context"
	"math/big"
	"sync"
	"time"

	"bridge-emulator/pkg/transfer"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// Publisher posts one gauge sample to a metrics backend. A nil Publisher on
// Stats disables metric posting.
type Publisher interface {
	PostGauge(ctx context.Context, metricName string, value float64, tags []string)
}

type DirectionCounters struct {
	Attempts   int
	Successes  int
	Failures   int
	TotalMoved *big.Int
}

// Stats aggregates bridge attempt outcomes per direction. The cycle loop
// writes while the periodic reporter reads, hence the mutex.
type Stats struct {
	mu       sync.Mutex
	counters map[transfer.Direction]*DirectionCounters

	started        time.Time
	environment    string
	homeChainID    *big.Int
	foreignChainID *big.Int
	publisher      Publisher
}

func NewStats(environment string, homeChainID, foreignChainID *big.Int, publisher Publisher) *Stats {
	return &Stats{
		counters: map[transfer.Direction]*DirectionCounters{
			transfer.HomeToForeign: {TotalMoved: new(big.Int)},
			transfer.ForeignToHome: {TotalMoved: new(big.Int)},
		},
		started:        time.Now(),
		environment:    environment,
		homeChainID:    homeChainID,
		foreignChainID: foreignChainID,
		publisher:      publisher,
	}
}

// RecordAttempt folds one bridge attempt into the counters and posts the
// per-attempt gauge, with the elapsed time as the value.
func (s *Stats) RecordAttempt(
	ctx context.Context,
	direction transfer.Direction,
	acctAddr common.Address,
	success bool,
	amount *big.Int,
	elapsed time.Duration,
) {
	s.mu.Lock()
	c := s.counters[direction]
	c.Attempts++
	metricName := "bridging.failure"
	if success {
		c.Successes++
		c.TotalMoved.Add(c.TotalMoved, amount)
		metricName = "bridging.success"
	} else {
		c.Failures++
	}
	s.mu.Unlock()

	if s.publisher == nil {
		return
	}
	toChainID := s.foreignChainID
	if direction == transfer.ForeignToHome {
		toChainID = s.homeChainID
	}
	tags := []string{
		"environment:" + s.environment,
		"account_addr:" + acctAddr.Hex(),
		"to_chain_id:" + toChainID.String(),
	}
	s.publisher.PostGauge(ctx, metricName, elapsed.Seconds(), tags)
}

// Snapshot returns a copy of the counters safe to read without the lock.
func (s *Stats) Snapshot() map[transfer.Direction]DirectionCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[transfer.Direction]DirectionCounters, len(s.counters))
	for d, c := range s.counters {
		cp := *c
		cp.TotalMoved = new(big.Int).Set(c.TotalMoved)
		out[d] = cp
	}
	return out
}

func (s *Stats) LogSummary() {
	snapshot := s.Snapshot()
	uptime := time.Since(s.started).Round(time.Second)
	log.Info().Msgf("Bridging totals after %s uptime:", uptime)
	for _, d := range []transfer.Direction{transfer.HomeToForeign, transfer.ForeignToHome} {
		c := snapshot[d]
		log.Info().Msgf("%s: attempts: %d, successes: %d, failures: %d, total moved: %s wei",
			d, c.Attempts, c.Successes, c.Failures, c.TotalMoved.String())
	}
}

func (s *Stats) postAggregates(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	snapshot := s.Snapshot()
	for _, d := range []transfer.Direction{transfer.HomeToForeign, transfer.ForeignToHome} {
		c := snapshot[d]
		tags := []string{
			"environment:" + s.environment,
			"direction:" + d.String(),
		}
		s.publisher.PostGauge(ctx, "bridging.attempts", float64(c.Attempts), tags)
		s.publisher.PostGauge(ctx, "bridging.successes", float64(c.Successes), tags)
		s.publisher.PostGauge(ctx, "bridging.failures", float64(c.Failures), tags)
	}
}
