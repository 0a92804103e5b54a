// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/smpspeed-logger/internal/status"
	"github.com/tamzrod/smpspeed-logger/internal/tilemap"
)

// Monitor writes the header and the connect line, then runs until a fatal error.
// The terminal error is recorded as exactly one diagnostic line before it is returned.
func (p *Poller) Monitor(ctx context.Context, device string) error {
	if err := p.sink.WriteHeader(p.layout.Columns()); err != nil {
		return err
	}
	if err := p.sink.WriteMessage(p.clock.Now(), fmt.Sprintf("Connected to %s", device)); err != nil {
		return err
	}

	p.publish(status.Snapshot{Health: status.HealthUnknown})

	err := p.Run(ctx)

	// Best effort: the sink may be the thing that failed.
	if werr := p.sink.WriteMessage(p.clock.Now(), fmt.Sprintf("EXCEPTION: %v", err)); werr != nil {
		p.log.Error().Err(werr).Msg("cannot record terminal error")
	}

	return err
}

// recover retries a transient outcome until it decodes or the watchdog fires.
func (p *Poller) recover(ctx context.Context, res tilemap.Result) (tilemap.Result, error) {
	start := p.state.cycleStart

	p.log.Warn().
		Str("status", res.Status.String()).
		AnErr("cause", res.Err).
		Msg("tilemap not readable, retrying")

	if err := p.sink.WriteMessage(p.clock.Now(), MsgTilemapMismatch); err != nil {
		return tilemap.Result{}, err
	}

	p.state.failingSince = start
	retries := 0

	for !res.OK() {
		p.transient(res.Status)

		if p.clock.Now().Sub(start) > p.cfg.Watchdog {
			return tilemap.Result{}, fmt.Errorf("%w: no data for %s (%d retries)", ErrTimeout, p.cfg.Watchdog, retries)
		}
		if err := p.clock.Sleep(ctx, p.cfg.Backoff); err != nil {
			return tilemap.Result{}, err
		}

		retries++
		var err error
		res, err = p.PollOnce(ctx)
		if err != nil {
			return tilemap.Result{}, err
		}
	}

	p.log.Info().
		Int("retries", retries).
		Dur("after", p.clock.Now().Sub(start)).
		Msg("tilemap readable again")

	return res, nil
}

func (p *Poller) transient(s tilemap.Status) {
	p.state.lastCode = status.ResultCode(s)
	if p.obs != nil {
		p.obs.ObserveRetry(s)
	}
	p.publish(status.Stale(p.state.lastCode, p.state.failingSince, p.clock.Now()))
}

func (p *Poller) healthy(cycle time.Duration) {
	p.state.failingSince = time.Time{}
	p.state.lastCode = status.CodeNone
	if p.obs != nil {
		p.obs.ObserveRecord(cycle)
	}
	p.publish(status.OK())
}

// fail publishes the terminal status. Context cancellation is passed through untouched.
func (p *Poller) fail(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	p.publish(status.Failed(err, p.state.failingSince, p.clock.Now()))
	return err
}

func (p *Poller) publish(s status.Snapshot) {
	if p.obs != nil {
		p.obs.ObserveStatus(s)
	}
}
