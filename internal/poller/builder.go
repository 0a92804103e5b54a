// internal/poller/builder.go
package poller

import (
	"time"

	"github.com/rs/zerolog"
	cfg "github.com/tamzrod/smpspeed-logger/internal/config"
	"github.com/tamzrod/smpspeed-logger/internal/sampler"
	"github.com/tamzrod/smpspeed-logger/internal/tilemap"
	"github.com/tamzrod/smpspeed-logger/internal/writer"
)

// Metrics is the observer set a Build wires through the pipeline.
type Metrics interface {
	Observer
	sampler.Observer
}

// Build constructs the smpspeed Poller from config.
// The reader is an attached device client; its lifecycle stays with the caller.
func Build(c *cfg.Config, r sampler.Reader, sink writer.Sink, m Metrics, log zerolog.Logger) (*Poller, error) {
	clock := SystemClock{}

	var (
		sampleObs sampler.Observer
		pollObs   Observer
	)
	if m != nil {
		sampleObs, pollObs = m, m
	}

	s, err := sampler.New(r, tilemap.SMPSpeedOffset, tilemap.SMPSpeedSize, clock.Now, sampleObs)
	if err != nil {
		return nil, err
	}

	return New(
		Config{
			Interval: time.Duration(c.Poll.IntervalS) * time.Second,
			Backoff:  time.Duration(c.Poll.BackoffMs) * time.Millisecond,
			Watchdog: time.Duration(c.Poll.WatchdogS) * time.Second,
			MinSleep: DefaultMinSleep,
		},
		s,
		tilemap.SMPSpeedLayout,
		sink,
		Deps{
			Clock:    clock,
			Observer: pollObs,
			Log:      log.With().Str("component", "poller").Logger(),
		},
	)
}
