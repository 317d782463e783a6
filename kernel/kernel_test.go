package kernel_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tailored-agentic-units/assistant/command"
	"github.com/tailored-agentic-units/assistant/journal"
	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/resource"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Test helpers ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *recordingSpeaker) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// scriptedReader feeds lines to the kernel. Closing lines produces io.EOF.
type scriptedReader struct {
	lines  chan string
	closed chan struct{}
	once   sync.Once
}

func newScriptedReader() *scriptedReader {
	return &scriptedReader{
		lines:  make(chan string, 8),
		closed: make(chan struct{}),
	}
}

func (r *scriptedReader) ReadLine() (string, error) {
	select {
	case line, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-r.closed:
		return "", errors.New("reader closed")
	}
}

func (r *scriptedReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

type captureObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (c *captureObserver) OnEvent(_ context.Context, event observability.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureObserver) Count(t observability.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// failingStore loads nothing and fails every save.
type failingStore struct {
	loadErr error
}

func (s *failingStore) Load(context.Context) (*journal.Document, error) {
	return nil, s.loadErr
}

func (s *failingStore) Save(context.Context, *journal.Document) error {
	return errors.New("disk full")
}

func (s *failingStore) Close() error { return nil }

type harness struct {
	kernel   *kernel.Kernel
	clock    *fakeClock
	speaker  *recordingSpeaker
	observer *captureObserver
}

func newHarness(t *testing.T, mutate func(*kernel.Config), opts ...kernel.Option) *harness {
	t.Helper()

	cfg := kernel.DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	h := &harness{
		clock:    newClock(),
		speaker:  &recordingSpeaker{},
		observer: &captureObserver{},
	}

	base := []kernel.Option{
		kernel.WithClock(h.clock.Now),
		kernel.WithRand(rand.New(rand.NewPCG(1, 2))),
		kernel.WithSpeaker(h.speaker),
		kernel.WithStore(journal.NewMemoryStore()),
		kernel.WithObserver(h.observer),
		kernel.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}

	k, err := kernel.New(&cfg, append(base, opts...)...)
	require.NoError(t, err)
	h.kernel = k
	return h
}

// submit advances past the cooldown and submits raw.
func (h *harness) submit(t *testing.T, raw string) kernel.Outcome {
	t.Helper()
	h.clock.Advance(time.Second)
	outcome, err := h.kernel.Submit(context.Background(), raw)
	require.NoError(t, err)
	return outcome
}

func (h *harness) run(t *testing.T) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		errc <- h.kernel.Run(context.Background())
	}()
	return errc
}

func waitDone(t *testing.T, k *kernel.Kernel) {
	t.Helper()
	select {
	case <-k.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("kernel did not shut down")
	}
}

// --- Tests ---

func TestSubmit_Greeting(t *testing.T) {
	h := newHarness(t, nil)

	outcome := h.submit(t, "oi")

	assert.Equal(t, "greeting", outcome.Route)
	assert.Equal(t, "Hello. All systems ready. Focus level optimal.", outcome.Response)

	snap := h.kernel.Snapshot()
	assert.InDelta(t, 0.35, snap.Dopamine, 1e-9)
	assert.Equal(t, resource.LabelCalm, snap.Emotion)
	assert.Equal(t, uint64(1), snap.Registers.CommandCount)
	assert.Equal(t, resource.StateActive, snap.Registers.State)
	assert.Equal(t, 8.0, snap.RAM.UsedMB)
	require.Len(t, snap.RAM.Blocks, 1)
	assert.Equal(t, "command:greeting", snap.RAM.Blocks[0].Reason)

	require.Len(t, snap.Messages, 1)
	assert.Equal(t, outcome.Response, snap.Messages[0].Text)

	last, ok := h.kernel.Journal().Last()
	require.True(t, ok)
	assert.Equal(t, journal.KindCommand, last.Kind)
	assert.Equal(t, "oi", last.Payload["command"])
	assert.Equal(t, "greeting", last.Payload["route"])
	assert.Equal(t, outcome.Response, last.Payload["response"])
	assert.Contains(t, last.Payload, "state")
	assert.Equal(t, outcome.Entry.ID, last.ID)
	assert.NoError(t, h.kernel.Journal().Verify())
}

func TestSubmit_OperatorName(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) { c.Operator = "Pedro" })

	outcome := h.submit(t, "hello")
	assert.True(t, strings.HasPrefix(outcome.Response, "Hello Pedro. All systems ready."))
}

func TestSubmit_RateLimited(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.kernel.Submit(ctx, "status")
	require.NoError(t, err)
	before := h.kernel.Snapshot()
	entries := h.kernel.Journal().Len()

	h.clock.Advance(100 * time.Millisecond)
	_, err = h.kernel.Submit(ctx, "status")
	assert.ErrorIs(t, err, command.ErrRateLimited)

	after := h.kernel.Snapshot()
	assert.Equal(t, before.Registers.CommandCount, after.Registers.CommandCount)
	assert.Equal(t, before.Dopamine, after.Dopamine)
	assert.Equal(t, before.RAM.UsedMB, after.RAM.UsedMB)
	assert.Equal(t, len(before.Messages), len(after.Messages))
	assert.Equal(t, entries, h.kernel.Journal().Len())
	assert.Equal(t, 1, h.observer.Count(kernel.EventCommandRejected))
}

func TestSubmit_SafeModeRejects(t *testing.T) {
	h := newHarness(t, nil)
	before := h.kernel.Snapshot()

	_, err := h.kernel.Submit(context.Background(), "tell me a joke")
	assert.ErrorIs(t, err, command.ErrNotPermitted)

	after := h.kernel.Snapshot()
	assert.Equal(t, before.Registers, after.Registers)
	assert.Equal(t, before.Dopamine, after.Dopamine)
	assert.Empty(t, after.Messages)
	assert.Equal(t, 0, h.kernel.Journal().Len())
}

func TestSubmit_SafeModeDisabledFallsBack(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) { c.Command.SafeMode = false })

	outcome := h.submit(t, "tell me a joke")
	assert.Equal(t, "fallback", outcome.Route)
	assert.True(t, strings.HasPrefix(outcome.Response, "Command received. No action required."))
	assert.InDelta(t, 0.32, h.kernel.Snapshot().Dopamine, 1e-9)
}

func TestSubmit_LightRoundTrip(t *testing.T) {
	h := newHarness(t, nil)

	on := h.submit(t, "ligar a luz 40")
	assert.Equal(t, "light.on", on.Route)
	assert.Equal(t, "Room light activated at 40%. Focus level optimal.", on.Response)

	snap := h.kernel.Snapshot()
	assert.Equal(t, resource.LightState{On: true, Intensity: 40}, snap.Light)
	assert.InDelta(t, 0.38, snap.Dopamine, 1e-9)

	again := h.submit(t, "ligar a luz 40")
	assert.True(t, strings.HasPrefix(again.Response, "The room light is already on."))
	assert.InDelta(t, 0.38, h.kernel.Snapshot().Dopamine, 1e-9, "no delta when nothing changed")

	off := h.submit(t, "desligar a luz")
	assert.Equal(t, "light.off", off.Route)
	assert.Equal(t, "Room light deactivated. Energy saving mode enabled. System performance satisfactory.", off.Response)

	snap = h.kernel.Snapshot()
	assert.False(t, snap.Light.On)
	assert.InDelta(t, 0.43, snap.Dopamine, 1e-9)
	assert.Equal(t, resource.LabelContent, snap.Emotion)
	assert.Equal(t, resource.StateActive, snap.Registers.State, "desligar a luz must not shut down")

	already := h.submit(t, "apagar a luz")
	assert.True(t, strings.HasPrefix(already.Response, "The room light is already off."))
}

func TestSubmit_LightIntensityClamped(t *testing.T) {
	h := newHarness(t, nil)

	h.submit(t, "light on 250")
	assert.Equal(t, 100, h.kernel.Snapshot().Light.Intensity)

	h.submit(t, "ligar a luz 30")
	outcome := h.submit(t, "ligar a luz")
	assert.True(t, strings.HasPrefix(outcome.Response, "Room light adjusted to 100%."))
}

func TestSubmit_LightNegativeIntensity(t *testing.T) {
	h := newHarness(t, nil)

	outcome := h.submit(t, "ligar a luz -5")
	assert.True(t, strings.HasPrefix(outcome.Response, "Room light activated at 0%."), outcome.Response)
	assert.Equal(t, resource.LightState{On: true, Intensity: 0}, h.kernel.Snapshot().Light)
}

func TestSubmit_LightPermissionDenied(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) { c.Permissions.LightControl = false })

	outcome := h.submit(t, "ligar a luz")
	assert.True(t, strings.HasPrefix(outcome.Response, "Permission denied to control room lights."))

	snap := h.kernel.Snapshot()
	assert.False(t, snap.Light.On)
	assert.InDelta(t, 0.3, snap.Dopamine, 1e-9)
}

func TestSubmit_Routes(t *testing.T) {
	tests := []struct {
		input  string
		route  string
		prefix string
	}{
		{"status", "status", "CPU load at"},
		{"como está o humor", "emotion", "Emotional state CALM."},
		{"que hora é", "time", "Current time is 09:30:01."},
		{"ajuda", "help", "Available commands:"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h := newHarness(t, nil)
			outcome := h.submit(t, tt.input)
			assert.Equal(t, tt.route, outcome.Route)
			assert.True(t, strings.HasPrefix(outcome.Response, tt.prefix), outcome.Response)
		})
	}
}

func TestSubmit_RoutePriority(t *testing.T) {
	tests := []struct {
		input string
		route string
	}{
		{"oi", "greeting"},
		{"olá!", "greeting"},
		{"oi tudo bem", "fallback"},
		{"ligar a luz 40", "light.on"},
		{"desligar a luz", "light.off"},
		{"turn off the light", "light.off"},
		{"emotion status", "status"},
		{"como está o humor", "emotion"},
		{"que horas são", "time"},
		{"que horas sao?", "time"},
		{"me diga as horas", "time"},
		{"what time is it", "time"},
		{"time to rest", "time"},
		{"vou sair agora", "rest"},
		{"descansando um pouco", "rest"},
		{"help me rest", "rest"},
		{"ajude-me", "help"},
		{"help", "help"},
		{"interesting", "fallback"},
		{"desligar sistema", "shutdown"},
		{"desligar", "shutdown"},
		{"shutdown", "shutdown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h := newHarness(t, nil)
			assert.Equal(t, tt.route, h.submit(t, tt.input).Route)
		})
	}
}

func TestSubmit_Rest(t *testing.T) {
	h := newHarness(t, nil)

	outcome := h.submit(t, "vou sair")
	assert.Equal(t, "rest", outcome.Route)

	snap := h.kernel.Snapshot()
	assert.Equal(t, resource.StateIdle, snap.Registers.State)
	assert.InDelta(t, 0.4, snap.Dopamine, 1e-9)

	h.submit(t, "status")
	assert.Equal(t, resource.StateActive, h.kernel.Snapshot().Registers.State)
}

func TestSubmit_AllocationTriggersCleanup(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) {
		c.RAM.CapacityMB = 100
		c.RAM.CleanupThreshold = 0.5
		c.CommandBlockMB = 30
	})

	h.submit(t, "status")
	h.submit(t, "status")
	before := h.kernel.Snapshot()
	require.Equal(t, 60.0, before.RAM.UsedMB)

	h.submit(t, "status")
	after := h.kernel.Snapshot()
	assert.InDelta(t, 60*0.6+30, after.RAM.UsedMB, 1e-9)
	assert.InDelta(t, before.Dopamine+0.02, after.Dopamine, 1e-9)
	assert.Equal(t, 1, h.observer.Count(kernel.EventRAMCleanup))
}

func TestMaintain(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) {
		c.RAM.CapacityMB = 100
		c.RAM.SoftThreshold = 0.5
		c.CommandBlockMB = 30
	})
	ctx := context.Background()

	h.submit(t, "status")
	assert.False(t, h.kernel.Maintain(ctx), "below soft threshold")

	h.submit(t, "status")
	dopamine := h.kernel.Snapshot().Dopamine

	assert.True(t, h.kernel.Maintain(ctx))
	snap := h.kernel.Snapshot()
	assert.InDelta(t, 36.0, snap.RAM.UsedMB, 1e-9)
	assert.InDelta(t, dopamine+0.02, snap.Dopamine, 1e-9)
}

func TestMaintain_AutoCleanupDisabled(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) {
		c.AutoCleanup = false
		c.RAM.CapacityMB = 100
		c.RAM.SoftThreshold = 0.1
		c.CommandBlockMB = 30
	})

	h.submit(t, "status")
	assert.False(t, h.kernel.Maintain(context.Background()))
	assert.Equal(t, 30.0, h.kernel.Snapshot().RAM.UsedMB)
}

func TestTick_Dream(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) {
		c.Dream.Interval = 10 * time.Second
		c.Dream.LoadThreshold = 1.0
	})
	ctx := context.Background()

	h.kernel.Tick(ctx)
	assert.Equal(t, uint64(0), h.kernel.Journal().Counters().Dreams, "interval not yet elapsed")

	h.clock.Advance(11 * time.Second)
	h.kernel.Tick(ctx)
	h.kernel.Tick(ctx)

	assert.Equal(t, uint64(1), h.kernel.Journal().Counters().Dreams)

	last, ok := h.kernel.Journal().Last()
	require.True(t, ok)
	assert.Equal(t, journal.KindDream, last.Kind)
	assert.Contains(t, kernel.DefaultDreams, last.Payload["text"])

	snap := h.kernel.Snapshot()
	require.Len(t, snap.RAM.Blocks, 1)
	assert.Equal(t, "dream", snap.RAM.Blocks[0].Reason)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, last.Payload["text"], snap.Messages[0].Text)
	assert.Equal(t, 1, h.observer.Count(kernel.EventDream))
}

func TestTick_NoDreamUnderLoad(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) {
		c.Dream.Interval = time.Second
		c.Dream.LoadThreshold = 0.01
	})

	h.clock.Advance(time.Minute)
	h.kernel.Tick(context.Background())

	assert.Equal(t, uint64(0), h.kernel.Journal().Counters().Dreams)
}

func TestTick_DecayAndLoad(t *testing.T) {
	h := newHarness(t, nil)

	h.kernel.Tick(context.Background())

	snap := h.kernel.Snapshot()
	assert.InDelta(t, 0.299, snap.Dopamine, 1e-9)
	assert.GreaterOrEqual(t, snap.Registers.Load, 0.08)
	assert.LessOrEqual(t, snap.Registers.Load, 0.92)
}

func TestTick_DrainsCommandQueue(t *testing.T) {
	h := newHarness(t, nil)

	require.True(t, h.kernel.Enqueue("oi"))
	require.True(t, h.kernel.Enqueue("status"))
	h.kernel.Tick(context.Background())

	snap := h.kernel.Snapshot()
	assert.Equal(t, uint64(1), snap.Registers.CommandCount, "second command falls inside the cooldown")
	assert.Equal(t, 1, h.observer.Count(kernel.EventCommandRejected))
}

func TestEnqueue_FullQueueDrops(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) { c.QueueSize = 2 })

	assert.True(t, h.kernel.Enqueue("oi"))
	assert.True(t, h.kernel.Enqueue("oi"))
	assert.False(t, h.kernel.Enqueue("oi"))
	assert.Equal(t, int64(1), h.kernel.Snapshot().QueueDropped)
}

func TestAutosave(t *testing.T) {
	h := newHarness(t, nil)

	entry, err := h.kernel.Autosave(context.Background())
	require.NoError(t, err)

	assert.Equal(t, journal.KindAutosave, entry.Kind)
	assert.Equal(t, uint64(1), h.kernel.Journal().Counters().Autosaves)
	assert.Contains(t, entry.Payload, "dopamine")
}

func TestPersistence_SaveFailureDegradesOnce(t *testing.T) {
	h := newHarness(t, nil, kernel.WithStore(&failingStore{}))

	h.submit(t, "oi")
	snap := h.kernel.Snapshot()
	assert.Equal(t, uint64(1), snap.Registers.ErrorCount)
	assert.True(t, snap.Journal.Degraded)
	assert.Equal(t, uint64(1), snap.Registers.CommandCount, "the command still succeeds")

	h.submit(t, "status")
	snap = h.kernel.Snapshot()
	assert.Equal(t, uint64(1), snap.Registers.ErrorCount, "degradation is reported once")
	assert.Equal(t, 2, snap.Journal.Entries)
	assert.Equal(t, 1, h.observer.Count(kernel.EventPersistenceDegraded))
}

func TestPersistence_LoadFailureDegradesAtStart(t *testing.T) {
	h := newHarness(t, nil, kernel.WithStore(&failingStore{loadErr: errors.New("corrupt")}))

	snap := h.kernel.Snapshot()
	assert.True(t, snap.Journal.Degraded)
	assert.Equal(t, uint64(1), snap.Registers.ErrorCount)

	h.submit(t, "oi")
	assert.Equal(t, uint64(1), h.kernel.Snapshot().Registers.ErrorCount)
}

func TestPersistence_FileJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hd_virtual.json")

	cfg := kernel.DefaultConfig()
	cfg.Journal.Path = path
	cfg.Permissions.Voice = false
	clock := newClock()

	k, err := kernel.New(&cfg,
		kernel.WithClock(clock.Now),
		kernel.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	_, err = k.Submit(context.Background(), "oi")
	require.NoError(t, err)
	require.NoError(t, k.Shutdown(context.Background()))

	doc, err := journal.NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, journal.KindCommand, doc.Entries[0].Kind)
	assert.Equal(t, journal.KindShutdown, doc.Entries[1].Kind)
	assert.Equal(t, uint64(1), doc.Counters.Commands)
	assert.NoError(t, journal.VerifyEntries(doc.Entries))
}

func TestPersistence_DiskPermissionKeepsMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hd_virtual.json")

	cfg := kernel.DefaultConfig()
	cfg.Journal.Path = path
	cfg.Permissions.Disk = false
	cfg.Permissions.Voice = false

	k, err := kernel.New(&cfg, kernel.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	_, err = k.Submit(context.Background(), "oi")
	require.NoError(t, err)
	require.NoError(t, k.Shutdown(context.Background()))

	assert.NoFileExists(t, path)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := kernel.DefaultConfig()
	cfg.Journal.Backend = "tape"

	_, err := kernel.New(&cfg)
	assert.ErrorIs(t, err, journal.ErrUnknownBackend)
}

func TestShutdownCommand(t *testing.T) {
	reader := newScriptedReader()
	h := newHarness(t, nil, kernel.WithInput(reader))

	errc := h.run(t)
	reader.lines <- "desligar sistema"

	waitDone(t, h.kernel)
	require.NoError(t, <-errc)

	snap := h.kernel.Snapshot()
	assert.Equal(t, resource.StateShutdown, snap.Registers.State)
	assert.Equal(t, uint64(1), snap.Registers.CommandCount)

	entries := h.kernel.Journal().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "shutdown", entries[0].Payload["route"])
	assert.Equal(t, journal.KindShutdown, entries[1].Kind)

	texts := h.speaker.Texts()
	require.NotEmpty(t, texts)
	assert.True(t, strings.HasPrefix(texts[0], "System online."))
	assert.Contains(t, texts, "Shutdown acknowledged. Rest mode active. Welcome back anytime.")

	h.clock.Advance(time.Minute)
	_, err := h.kernel.Submit(context.Background(), "ligar a luz")
	assert.ErrorIs(t, err, kernel.ErrShutdown)
	assert.False(t, h.kernel.Snapshot().Light.On)
	assert.Len(t, h.kernel.Journal().Entries(), 2, "nothing is appended after shutdown")
	assert.False(t, h.kernel.Enqueue("oi"))
}

func TestShutdown_Method(t *testing.T) {
	h := newHarness(t, nil)

	errc := h.run(t)
	require.Eventually(t, func() bool {
		return h.kernel.Snapshot().Registers.State == resource.StateActive
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, h.kernel.Shutdown(context.Background()))
	require.NoError(t, <-errc)

	last, ok := h.kernel.Journal().Last()
	require.True(t, ok)
	assert.Equal(t, journal.KindShutdown, last.Kind)
	assert.Equal(t, 1, h.observer.Count(kernel.EventShutdown))

	require.NoError(t, h.kernel.Shutdown(context.Background()), "second shutdown is a no-op")
	assert.Equal(t, uint64(1), h.kernel.Journal().Counters().Shutdowns)
}

func TestShutdown_ContextCancel(t *testing.T) {
	h := newHarness(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.kernel.Run(ctx) }()

	require.Eventually(t, func() bool {
		return h.kernel.Snapshot().Registers.State == resource.StateActive
	}, 5*time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-errc)
	waitDone(t, h.kernel)
	assert.Equal(t, resource.StateShutdown, h.kernel.Snapshot().Registers.State)
}

func TestShutdown_BeforeRun(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.kernel.Shutdown(context.Background()))
	waitDone(t, h.kernel)

	assert.ErrorIs(t, h.kernel.Run(context.Background()), kernel.ErrShutdown)

	last, ok := h.kernel.Journal().Last()
	require.True(t, ok)
	assert.Equal(t, journal.KindShutdown, last.Kind)
}

func TestShutdown_WithoutRunViaCommand(t *testing.T) {
	h := newHarness(t, nil)

	outcome := h.submit(t, "shutdown")
	assert.Equal(t, "shutdown", outcome.Route)
	waitDone(t, h.kernel)
}

func TestRun_AlreadyRunning(t *testing.T) {
	h := newHarness(t, nil)

	first := h.run(t)
	second := h.run(t)

	var errs []error
	select {
	case err := <-first:
		errs = append(errs, err)
	case err := <-second:
		errs = append(errs, err)
	case <-time.After(5 * time.Second):
		t.Fatal("neither Run returned")
	}
	assert.ErrorIs(t, errs[0], kernel.ErrAlreadyRunning)

	require.NoError(t, h.kernel.Shutdown(context.Background()))
	select {
	case err := <-first:
		assert.NoError(t, err)
	case err := <-second:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("running kernel did not return")
	}
}

func TestInput_EOFShutsDown(t *testing.T) {
	reader := newScriptedReader()
	h := newHarness(t, nil, kernel.WithInput(reader))

	errc := h.run(t)
	reader.lines <- "oi"
	close(reader.lines)

	waitDone(t, h.kernel)
	require.NoError(t, <-errc)
	assert.Equal(t, resource.StateShutdown, h.kernel.Snapshot().Registers.State)
}

func TestInput_EOFWithoutShutdown(t *testing.T) {
	reader := newScriptedReader()
	h := newHarness(t, func(c *kernel.Config) { c.ShutdownOnEOF = false }, kernel.WithInput(reader))

	errc := h.run(t)
	close(reader.lines)

	time.Sleep(50 * time.Millisecond)
	select {
	case <-h.kernel.Done():
		t.Fatal("kernel stopped on EOF")
	default:
	}

	require.NoError(t, h.kernel.Shutdown(context.Background()))
	require.NoError(t, <-errc)
}

func TestSnapshot_IsACopy(t *testing.T) {
	h := newHarness(t, nil)
	h.submit(t, "oi")

	snap := h.kernel.Snapshot()
	snap.RAM.Blocks[0].SizeMB = 999
	snap.Messages[0].Text = "tampered"

	fresh := h.kernel.Snapshot()
	assert.Equal(t, 8.0, fresh.RAM.Blocks[0].SizeMB)
	assert.NotEqual(t, "tampered", fresh.Messages[0].Text)
}

func TestConcurrentSubmitAndSnapshot(t *testing.T) {
	h := newHarness(t, func(c *kernel.Config) {
		c.Command.Cooldown = time.Nanosecond
		c.Command.SafeMode = false
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				h.clock.Advance(time.Millisecond)
				h.kernel.Submit(ctx, "ligar a luz 50")
				h.kernel.Submit(ctx, "apagar a luz")
			}
		}()
	}
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				snap := h.kernel.Snapshot()
				var sum float64
				for _, b := range snap.RAM.Blocks {
					sum += b.SizeMB
				}
				assert.InDelta(t, sum, snap.RAM.UsedMB, 1e-9)
				h.kernel.Tick(ctx)
			}
		}()
	}
	wg.Wait()

	assert.NoError(t, h.kernel.Journal().Verify())
}
