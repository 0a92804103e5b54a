// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tamzrod/smpspeed-logger/internal/sampler"
	"github.com/tamzrod/smpspeed-logger/internal/status"
	"github.com/tamzrod/smpspeed-logger/internal/tilemap"
)

var errStop = errors.New("stop")

// ---- fake clock ----

type fakeClock struct {
	now       time.Time
	sleeps    []time.Duration
	maxSleeps int
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.maxSleeps > 0 && len(c.sleeps) >= c.maxSleeps {
		return errStop
	}
	return nil
}

// ---- fake reader ----

type fakeReader struct {
	clock  *fakeClock
	cost   time.Duration
	screen func(call int) []byte
	err    error
	calls  int
}

func (f *fakeReader) ReadMemory(offset uint32, size int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.clock.now = f.clock.now.Add(f.cost)
	b := f.screen(f.calls)
	f.calls++
	return b, nil
}

// ---- recording sink ----

type line struct {
	kind   string
	at     time.Time
	fields []string
	msg    string
}

type fakeSink struct {
	lines []line
	err   error
}

func (s *fakeSink) WriteHeader(columns []string) error {
	s.lines = append(s.lines, line{kind: "header", fields: columns})
	return nil
}

func (s *fakeSink) WriteRecord(at time.Time, fields []string) error {
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line{kind: "record", at: at, fields: fields})
	return nil
}

func (s *fakeSink) WriteMessage(at time.Time, msg string) error {
	s.lines = append(s.lines, line{kind: "message", at: at, msg: msg})
	return nil
}

func (s *fakeSink) count(kind string) int {
	n := 0
	for _, l := range s.lines {
		if l.kind == kind {
			n++
		}
	}
	return n
}

// ---- recording observer ----

type fakeObserver struct {
	records  int
	retries  map[tilemap.Status]int
	statuses []status.Snapshot
}

func (o *fakeObserver) ObserveRecord(time.Duration) { o.records++ }

func (o *fakeObserver) ObserveRetry(s tilemap.Status) {
	if o.retries == nil {
		o.retries = map[tilemap.Status]int{}
	}
	o.retries[s]++
}

func (o *fakeObserver) ObserveStatus(s status.Snapshot) { o.statuses = append(o.statuses, s) }

func (o *fakeObserver) last() status.Snapshot { return o.statuses[len(o.statuses)-1] }

// ---- screens ----

func fields(i int) []string {
	return []string{
		"60 Hz", "1.0240 MHz", "1.0238 MHz", "1.0243 MHz",
		fmt.Sprintf("1.0240%02d MHz", i), "+23 ppm", "1.024012 MHz", "1.024098 MHz", "32000.6 Hz",
	}
}

func screen(t *testing.T, f []string) []byte {
	t.Helper()
	b, err := tilemap.Render(tilemap.SMPSpeedLayout, f)
	require.NoError(t, err)
	return b
}

func notReadyScreen(t *testing.T) []byte {
	f := fields(0)
	f[1] = "------"
	return screen(t, f)
}

// ---- harness ----

type harness struct {
	clock  *fakeClock
	reader *fakeReader
	sink   *fakeSink
	obs    *fakeObserver
	p      *Poller
}

func newHarness(t *testing.T, interval time.Duration, screenFn func(call int) []byte) *harness {
	t.Helper()

	h := &harness{
		clock: newClock(),
		sink:  &fakeSink{},
		obs:   &fakeObserver{},
	}
	h.reader = &fakeReader{clock: h.clock, screen: screenFn}

	s, err := sampler.New(h.reader, tilemap.SMPSpeedOffset, tilemap.SMPSpeedSize, h.clock.Now, nil)
	require.NoError(t, err)

	h.p, err = New(DefaultConfig(interval), s, tilemap.SMPSpeedLayout, h.sink, Deps{
		Clock:    h.clock,
		Observer: h.obs,
	})
	require.NoError(t, err)
	return h
}

// ---- tests ----

func TestRun_SleepKeepsCadence(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte { return screen(t, fields(0)) })
	h.reader.cost = 400 * time.Millisecond // 3 identical reads = 1.2s
	h.clock.maxSleeps = 2

	err := h.p.Run(context.Background())
	require.ErrorIs(t, err, errStop)

	assert.Equal(t, []time.Duration{3800 * time.Millisecond, 3800 * time.Millisecond}, h.clock.sleeps)
	assert.Equal(t, 2, h.sink.count("record"))
	assert.Equal(t, 6, h.reader.calls)
	assert.Equal(t, 2, h.obs.records)
	assert.Equal(t, status.HealthOK, h.obs.last().Health)
}

func TestRun_SlowCycleSleepsFloor(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte { return screen(t, fields(0)) })
	h.reader.cost = 2 * time.Second // 6s cycle
	h.clock.maxSleeps = 1

	err := h.p.Run(context.Background())
	require.ErrorIs(t, err, errStop)

	assert.Equal(t, []time.Duration{DefaultMinSleep}, h.clock.sleeps)
}

func TestRun_RecordFieldsAndTimestamp(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte { return screen(t, fields(7)) })
	h.clock.maxSleeps = 1
	start := h.clock.now

	_ = h.p.Run(context.Background())

	require.Len(t, h.sink.lines, 1)
	rec := h.sink.lines[0]
	assert.Equal(t, "record", rec.kind)
	assert.Equal(t, fields(7), rec.fields)
	assert.Equal(t, start, rec.at)
}

func TestRun_RecoversFromNotReady(t *testing.T) {
	// 3 reads per sample: the first two samples show placeholders
	h := newHarness(t, 5*time.Second, func(call int) []byte {
		if call < 6 {
			return notReadyScreen(t)
		}
		return screen(t, fields(1))
	})
	h.clock.maxSleeps = 3

	err := h.p.Run(context.Background())
	require.ErrorIs(t, err, errStop)

	require.Len(t, h.sink.lines, 2)
	assert.Equal(t, "message", h.sink.lines[0].kind)
	assert.Equal(t, MsgTilemapMismatch, h.sink.lines[0].msg)
	assert.Equal(t, "record", h.sink.lines[1].kind)

	// two backoffs, then a full interval: recovery resets the cycle clock
	assert.Equal(t, []time.Duration{DefaultBackoff, DefaultBackoff, 5 * time.Second}, h.clock.sleeps)
	assert.Equal(t, 2, h.obs.retries[tilemap.StatusNotReady])
	assert.Equal(t, status.HealthOK, h.obs.last().Health)
}

func TestRun_LayoutMismatchIsTransient(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte {
		if call < 3 {
			return make([]byte, tilemap.SMPSpeedSize)
		}
		return screen(t, fields(2))
	})
	h.clock.maxSleeps = 2

	err := h.p.Run(context.Background())
	require.ErrorIs(t, err, errStop)

	assert.Equal(t, 1, h.sink.count("record"))
	assert.Equal(t, 1, h.obs.retries[tilemap.StatusLayoutMismatch])
}

func TestRun_WatchdogTimeout(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte { return notReadyScreen(t) })
	start := h.clock.now

	err := h.p.Run(context.Background())
	require.ErrorIs(t, err, ErrTimeout)

	elapsed := h.clock.now.Sub(start)
	assert.Greater(t, elapsed, DefaultWatchdog)
	assert.LessOrEqual(t, elapsed, 61*time.Second)

	// every sleep was a backoff, none after the watchdog fired
	assert.Len(t, h.clock.sleeps, 241)
	for _, d := range h.clock.sleeps {
		require.Equal(t, DefaultBackoff, d)
	}

	assert.Equal(t, 0, h.sink.count("record"))
	assert.Equal(t, 1, h.sink.count("message"))

	last := h.obs.last()
	assert.Equal(t, status.HealthError, last.Health)
	assert.Equal(t, uint16(7), last.LastErrorCode)
	assert.Equal(t, uint16(60), last.SecondsInError)
}

func TestRun_UnsettledMemoryTimesOut(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte {
		return screen(t, fields(call%2))
	})
	h.reader.cost = time.Second

	err := h.p.Run(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.Empty(t, h.clock.sleeps)
	assert.Equal(t, 61, h.reader.calls)
}

func TestRun_ReadErrorIsFatal(t *testing.T) {
	h := newHarness(t, 5*time.Second, nil)
	h.reader.err = errors.New("usb2snes: read frame: connection reset")

	err := h.p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, h.clock.sleeps)
	assert.Empty(t, h.sink.lines)
	assert.Equal(t, status.HealthError, h.obs.last().Health)
}

func TestRun_SinkErrorIsFatal(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte { return screen(t, fields(0)) })
	h.sink.err = errors.New("disk full")

	err := h.p.Run(context.Background())
	assert.EqualError(t, err, "disk full")
}

func TestMonitor_RecordsTerminalErrorOnce(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte { return notReadyScreen(t) })

	err := h.p.Monitor(context.Background(), "SD2SNES COM3")
	require.ErrorIs(t, err, ErrTimeout)

	require.GreaterOrEqual(t, len(h.sink.lines), 4)
	assert.Equal(t, "header", h.sink.lines[0].kind)
	assert.Equal(t, tilemap.SMPSpeedLayout.Columns(), h.sink.lines[0].fields)
	assert.Equal(t, "Connected to SD2SNES COM3", h.sink.lines[1].msg)
	assert.Equal(t, MsgTilemapMismatch, h.sink.lines[2].msg)

	exceptions := 0
	for _, l := range h.sink.lines {
		if strings.HasPrefix(l.msg, "EXCEPTION: ") {
			exceptions++
		}
	}
	assert.Equal(t, 1, exceptions)
	assert.True(t, strings.HasPrefix(h.sink.lines[len(h.sink.lines)-1].msg, "EXCEPTION: Timeout"))
}

func TestPollOnce_Outcomes(t *testing.T) {
	h := newHarness(t, 5*time.Second, func(call int) []byte {
		if call < 3 {
			return notReadyScreen(t)
		}
		return screen(t, fields(3))
	})

	res, err := h.p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tilemap.StatusNotReady, res.Status)

	res, err = h.p.PollOnce(context.Background())
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, tilemap.Record(fields(3)), res.Record)
}

func TestNew_Validates(t *testing.T) {
	s, err := sampler.New(&fakeReader{}, 0, 1, nil, nil)
	require.NoError(t, err)

	_, err = New(Config{}, s, tilemap.SMPSpeedLayout, &fakeSink{}, Deps{})
	assert.Error(t, err)

	_, err = New(DefaultConfig(time.Second), nil, tilemap.SMPSpeedLayout, &fakeSink{}, Deps{})
	assert.Error(t, err)

	_, err = New(DefaultConfig(time.Second), s, nil, &fakeSink{}, Deps{})
	assert.Error(t, err)

	_, err = New(DefaultConfig(time.Second), s, tilemap.SMPSpeedLayout, nil, Deps{})
	assert.Error(t, err)

	_, err = New(DefaultConfig(time.Second), s, tilemap.SMPSpeedLayout, &fakeSink{}, Deps{})
	assert.NoError(t, err)
}
