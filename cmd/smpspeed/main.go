// cmd/smpspeed/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/tamzrod/smpspeed-logger/internal/config"
	"github.com/tamzrod/smpspeed-logger/internal/logging"
	"github.com/tamzrod/smpspeed-logger/internal/metrics"
	"github.com/tamzrod/smpspeed-logger/internal/poller"
	"github.com/tamzrod/smpspeed-logger/internal/poller/usb2snes"
	"github.com/tamzrod/smpspeed-logger/internal/trace"
	"github.com/tamzrod/smpspeed-logger/internal/writer"
)

// ErrNoDevice is returned when no attached console matches the device marker.
var ErrNoDevice = errors.New("Cannot connect to usb2snes")

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout))
}

// execute runs the program and returns the process exit status.
func execute(args []string, stdout io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smpspeed: %v\n", err)
		return 2
	}

	if opts.dump != "" {
		if err := dumpTrace(opts.dump, stdout); err != nil {
			fmt.Fprintf(os.Stderr, "smpspeed: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smpspeed: %v\n", err)
		return 2
	}

	log := logging.New(logging.Options{
		App:     "smpspeed",
		Level:   cfg.Log.Level,
		NoColor: cfg.Log.NoColor,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, stdout, log); err != nil {
		log.Error().Err(err).Msg("monitoring stopped")
		return 1
	}
	return 0
}

// --------------------
// Config: file, then flags
// --------------------

type options struct {
	fs *flag.FlagSet

	cfgPath  string
	address  string
	interval int
	output   string
	dump     string
}

func parseFlags(args []string) (*options, error) {
	o := &options{fs: flag.NewFlagSet("smpspeed", flag.ContinueOnError)}

	o.fs.StringVar(&o.cfgPath, "c", "", "config file (.yaml, .yml or .toml)")
	o.fs.StringVar(&o.address, "a", config.DefaultAddress, "websocket address")
	o.fs.IntVar(&o.interval, "i", config.DefaultIntervalS, "interval between reads (seconds)")
	o.fs.StringVar(&o.output, "o", "", "csv output file (must not exist)")
	o.fs.StringVar(&o.dump, "dump", "", "print a frame trace file and exit")

	if err := o.fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func loadConfig(o *options) (*config.Config, error) {
	cfg := config.Default()
	if o.cfgPath != "" {
		loaded, err := config.Load(o.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// explicit flags win over the file
	o.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.Source.Address = o.address
		case "i":
			cfg.Poll.IntervalS = o.interval
		case "o":
			cfg.Output.Path = o.output
		}
	})

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	return cfg, nil
}

func dumpTrace(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return trace.Dump(out, f)
}

// --------------------
// Lifecycle
// --------------------

// run owns the connection and the output file for one monitoring session.
// Every line is echoed to stdout when output.echo is set.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer, log zerolog.Logger) error {
	tr, err := usb2snes.Dial(ctx, usb2snes.Config{
		Address:          cfg.Source.Address,
		Origin:           cfg.Source.Origin,
		HandshakeTimeout: time.Duration(cfg.Source.TimeoutMs) * time.Millisecond,
		ReadTimeout:      time.Duration(cfg.Source.ReadTimeoutMs) * time.Millisecond,
		DeviceMarker:     cfg.Source.DeviceMarker,
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Source.Address, err)
	}

	if cfg.Trace.Path != "" {
		rec, err := trace.Create(cfg.Trace.Path)
		if err != nil {
			_ = tr.Close()
			return fmt.Errorf("trace: %w", err)
		}
		defer rec.Close()

		traced := trace.Wrap(tr, rec)
		log.Info().Str("path", cfg.Trace.Path).Str("connection_id", traced.ConnectionID()).Msg("tracing frames")
		tr = traced
	}

	client := usb2snes.New(tr, cfg.Source.DeviceMarker, log)
	defer client.Close()

	// signals only cancel ctx; closing the transport unblocks a pending receive
	defer client.Watch(ctx)()

	ok, err := client.Attach()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	if !ok {
		return ErrNoDevice
	}

	// Info costs a round trip before the output exists; only ask when debugging.
	if log.GetLevel() <= zerolog.DebugLevel {
		if prog, err := client.DeviceInfo(); err == nil {
			log.Debug().Str("device", client.Device()).Str("program", usb2snes.ProgramName(prog)).Msg("device info")
		} else {
			log.Debug().Err(err).Str("device", client.Device()).Msg("no device info")
		}
	}

	var echo io.Writer
	if cfg.Output.Echo {
		echo = stdout
	}
	sink, closeSink, err := writer.Create(cfg.Output.Path, echo)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			log.Error().Err(err).Str("path", cfg.Output.Path).Msg("output close failed")
		}
	}()

	m := metrics.New()
	if cfg.Metrics.Listen != "" {
		stopMetrics, err := metrics.Serve(cfg.Metrics.Listen, m, log.With().Str("component", "metrics").Logger())
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		defer stopMetrics()
	}

	p, err := poller.Build(cfg, client, sink, m, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("device", client.Device()).
		Str("output", cfg.Output.Path).
		Int("interval_s", cfg.Poll.IntervalS).
		Msg("monitoring")

	return p.Monitor(ctx, client.Device())
}
