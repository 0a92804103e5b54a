// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tamzrod/smpspeed-logger/internal/sampler"
	"github.com/tamzrod/smpspeed-logger/internal/tilemap"
	"github.com/tamzrod/smpspeed-logger/internal/writer"
)

// MsgTilemapMismatch is the diagnostic line written when a cycle enters recovery.
const MsgTilemapMismatch = "Cannot read data: tilemap does not match smpspeed"

// Deps are the collaborators a Poller needs beyond its sampler and sink.
// Zero values are valid: system clock, no observer, no logging.
type Deps struct {
	Clock    Clock
	Observer Observer
	Log      zerolog.Logger
}

// Poller turns stable samples into a time series of records.
type Poller struct {
	cfg     Config
	sampler Sampler
	layout  tilemap.Layout
	sink    writer.Sink

	clock Clock
	obs   Observer
	log   zerolog.Logger

	state pollState
}

// New creates a poller with immutable config.
func New(cfg Config, s Sampler, layout tilemap.Layout, sink writer.Sink, deps Deps) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.Backoff <= 0 || cfg.Watchdog <= 0 || cfg.MinSleep < 0 {
		return nil, errors.New("poller: backoff and watchdog must be > 0")
	}
	if s == nil {
		return nil, errors.New("poller: sampler required")
	}
	if len(layout) == 0 {
		return nil, errors.New("poller: layout has no rows")
	}
	if sink == nil {
		return nil, errors.New("poller: sink required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	return &Poller{
		cfg:     cfg,
		sampler: s,
		layout:  layout,
		sink:    sink,
		clock:   clock,
		obs:     deps.Observer,
		log:     deps.Log,
	}, nil
}

// PollOnce samples and decodes exactly once.
// Transient outcomes are returned as a Result; the error is reserved for fatal conditions.
func (p *Poller) PollOnce(ctx context.Context) (tilemap.Result, error) {
	deadline := p.state.cycleStart.Add(p.cfg.Watchdog)
	if p.state.cycleStart.IsZero() {
		deadline = p.clock.Now().Add(p.cfg.Watchdog)
	}

	snap, err := p.sampler.Sample(ctx, deadline)
	if errors.Is(err, sampler.ErrDeadline) {
		return tilemap.Result{}, fmt.Errorf("%w: no stable sample within %s of cycle start", ErrTimeout, p.cfg.Watchdog)
	}
	if err != nil {
		return tilemap.Result{}, err
	}

	return tilemap.Decode(snap.Data, p.layout), nil
}

// Run executes cycles until a fatal error or ctx is done. It never returns nil.
//
//  1. sample + decode
//  2. transient failure: retry every Backoff, ErrTimeout once Watchdog has
//     passed since the cycle start; recovery restarts the cycle clock
//  3. write the record
//  4. sleep max(Interval - elapsed, MinSleep)
func (p *Poller) Run(ctx context.Context) error {
	for {
		p.state.cycleStart = p.clock.Now()

		res, err := p.PollOnce(ctx)
		if err != nil {
			return p.fail(err)
		}

		if !res.OK() {
			res, err = p.recover(ctx, res)
			if err != nil {
				return p.fail(err)
			}
			// recovery time does not count against the next cycle
			p.state.cycleStart = p.clock.Now()
		}

		now := p.clock.Now()
		if err := p.sink.WriteRecord(now, res.Record); err != nil {
			return p.fail(err)
		}

		elapsed := now.Sub(p.state.cycleStart)
		p.healthy(elapsed)
		p.log.Debug().Strs("record", res.Record).Dur("cycle", elapsed).Msg("record written")

		sleep := p.cfg.Interval - elapsed
		if sleep < p.cfg.MinSleep {
			sleep = p.cfg.MinSleep
		}
		if err := p.clock.Sleep(ctx, sleep); err != nil {
			return err
		}
	}
}
