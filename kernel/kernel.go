// Package kernel implements the assistant runtime: it owns the resource
// aggregates, routes validated commands to handlers, and supervises the
// background tasks (primary loop, input capture, speech dispatch, RAM
// maintenance, autosave).
//
// The kernel initializes from configuration via New, creating all subsystems
// internally. Functional options allow test overrides of clocks, randomness,
// peripherals, and storage.
//
//	k, err := kernel.New(&cfg, kernel.WithInput(reader))
//	go k.Run(ctx)
//	outcome, err := k.Submit(ctx, "ligar a luz 40")
//	k.Shutdown(ctx)
package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/assistant/command"
	"github.com/tailored-agentic-units/assistant/feed"
	"github.com/tailored-agentic-units/assistant/journal"
	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/queue"
	"github.com/tailored-agentic-units/assistant/resource"
	"github.com/tailored-agentic-units/assistant/speech"
)

const bootAnnouncement = "System online. Emotional simulation initialized. " +
	"Room light control permission granted. Awaiting commands."

// LineReader supplies raw command lines. ReadLine blocks until a line is
// available; Close must unblock a pending ReadLine. io.EOF ends input.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// Outcome describes an accepted command.
type Outcome struct {
	Route    string        // Name of the route that handled the command.
	Response string        // Text pushed to the feed and spoken.
	Entry    journal.Entry // The command entry appended to the journal.
}

// Option configures a Kernel. Options run before the subsystems are built so
// that clocks, randomness, and stores reach every aggregate.
type Option func(*Kernel)

// WithClock overrides time.Now for every subsystem.
func WithClock(now func() time.Time) Option {
	return func(k *Kernel) { k.now = now }
}

// WithRand overrides the random source used for load and dream selection.
func WithRand(r *rand.Rand) Option {
	return func(k *Kernel) { k.rng = r }
}

// WithSpeaker overrides the config-created speech backend.
func WithSpeaker(s speech.Speaker) Option {
	return func(k *Kernel) { k.speaker = s }
}

// WithStore overrides the config-created journal store.
func WithStore(s journal.Store) Option {
	return func(k *Kernel) { k.store = s }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithLogger sets the logger used by the kernel and its speech dispatcher.
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) { k.logger = l }
}

// WithInput attaches an input collaborator captured by Run.
func WithInput(r LineReader) Option {
	return func(k *Kernel) { k.input = r }
}

// Kernel is the assistant runtime.
type Kernel struct {
	id  string
	cfg Config

	registers *resource.Registers
	emotion   *resource.Emotion
	ram       *resource.RAM
	light     *resource.Light
	feed      *feed.Feed
	journal   *journal.Journal
	validator *command.Validator
	router    *command.Router
	speech    *speech.Dispatcher
	commands  *queue.Channel[string]

	speaker  speech.Speaker
	store    journal.Store
	input    LineReader
	observer observability.Observer
	logger   *slog.Logger
	now      func() time.Time
	rng      *rand.Rand

	// mu makes one route, tick, maintenance pass, or dream atomic across the
	// aggregates. Snapshot holds it for reading.
	mu        sync.RWMutex
	lastDream time.Time

	lifecycle     sync.Mutex
	started       bool
	stopRequested bool
	cancel        context.CancelFunc
	finalizeOnce  sync.Once
	done          chan struct{}
}

// New creates a Kernel from configuration. The journal store and speech
// backend come from their config sections unless overridden by options. A
// missing speech backend is reported and speech is disabled; an unusable
// journal store degrades the journal to memory. Only an invalid journal
// backend fails construction.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		id:   uuid.Must(uuid.NewV7()).String(),
		cfg:  *cfg,
		now:  time.Now,
		done: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(k)
	}

	if k.logger == nil {
		k.logger = slog.Default()
	}
	if k.observer == nil {
		k.observer = observability.NewSlogObserver(k.logger)
	}
	if k.rng == nil {
		seed := uint64(k.now().UnixNano())
		k.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if k.cfg.TickInterval <= 0 {
		k.cfg.TickInterval = defaultTickInterval
	}
	if k.cfg.MaintenanceInterval <= 0 {
		k.cfg.MaintenanceInterval = defaultMaintenanceInterval
	}
	if k.cfg.AutosaveInterval <= 0 {
		k.cfg.AutosaveInterval = defaultAutosaveInterval
	}
	if len(k.cfg.Dream.Vocabulary) == 0 {
		k.cfg.Dream.Vocabulary = DefaultDreams
	}

	start := k.now()
	k.registers = resource.NewRegisters(start)
	k.emotion = resource.NewEmotion(k.cfg.Emotion, k.now)
	k.ram = resource.NewRAM(k.cfg.RAM, k.now)
	k.light = resource.NewLight()
	k.feed = feed.New(k.cfg.Feed, k.now)
	k.validator = command.NewValidator(k.cfg.Command, k.now)
	k.lastDream = start

	if k.store == nil {
		store, err := k.newStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create journal store: %w", err)
		}
		k.store = store
	}

	ctx := context.Background()
	k.journal = journal.New(ctx, k.store, k.cfg.Journal, k.now)
	if k.journal.Degraded() {
		k.registers.IncErrors()
		k.emitDegraded(ctx, k.journal.Cause())
	}

	if k.speaker == nil {
		k.speaker = k.newSpeaker(ctx)
	}
	k.speech = speech.NewDispatcher(k.speaker, k.cfg.Speech, k.logger)

	queueSize := k.cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	k.commands = queue.NewChannel[string](ctx, queueSize)

	router, err := k.newRouter()
	if err != nil {
		return nil, fmt.Errorf("failed to build command routes: %w", err)
	}
	k.router = router

	return k, nil
}

func (k *Kernel) newStore() (journal.Store, error) {
	if !k.cfg.Permissions.Disk {
		return journal.NewMemoryStore(), nil
	}
	store, err := journal.NewStore(&k.cfg.Journal)
	if errors.Is(err, journal.ErrUnknownBackend) {
		return nil, err
	}
	if err != nil {
		k.logger.Warn(
			"journal store unavailable, using memory",
			slog.String("error", err.Error()),
		)
		return &unavailableStore{err: err}, nil
	}
	return store, nil
}

func (k *Kernel) newSpeaker(ctx context.Context) speech.Speaker {
	if !k.cfg.Permissions.Voice {
		return speech.NoOpSpeaker{}
	}
	speaker, err := speech.NewSpeaker(k.cfg.Speech)
	if err != nil {
		k.emit(ctx, EventPeripheral, observability.LevelWarning, "kernel.New", map[string]any{
			"peripheral": "speech",
			"error":      err.Error(),
		})
	}
	return speaker
}

// ID returns the kernel's boot identifier.
func (k *Kernel) ID() string {
	return k.id
}

// Config returns the effective configuration.
func (k *Kernel) Config() Config {
	return k.cfg
}

// Journal returns the kernel's journal for read access.
func (k *Kernel) Journal() *journal.Journal {
	return k.journal
}

// Done is closed once the kernel has shut down and released its resources.
func (k *Kernel) Done() <-chan struct{} {
	return k.done
}

// Enqueue hands a raw line to the primary loop without blocking. Returns
// false when the command queue is full or closed.
func (k *Kernel) Enqueue(line string) bool {
	if k.commands.TrySend(line) {
		return true
	}
	k.emit(context.Background(), EventCommandDropped, observability.LevelWarning, "kernel.Enqueue", map[string]any{
		"queue_length": k.commands.Len(),
	})
	return false
}

// Submit validates raw and routes it. Validation rejections return the
// command package's sentinel errors and change nothing. A handler failure
// returns an error wrapping command.ErrHandlerFailure after recording it.
// Once the kernel is shut down every call returns ErrShutdown.
func (k *Kernel) Submit(ctx context.Context, raw string) (Outcome, error) {
	outcome, stop, err := k.submit(ctx, raw)
	if stop {
		k.requestStop()
	}
	return outcome, err
}

func (k *Kernel) submit(ctx context.Context, raw string) (Outcome, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.registers.State() == resource.StateShutdown {
		return Outcome{}, false, ErrShutdown
	}

	cmd, err := k.validator.Validate(raw)
	if err != nil {
		k.emit(ctx, EventCommandRejected, observability.LevelVerbose, "kernel.Submit", map[string]any{
			"reason": err.Error(),
		})
		return Outcome{}, false, err
	}

	result, err := k.router.Dispatch(ctx, cmd)
	if err != nil {
		k.handlerFailureLocked(ctx, cmd, result.Route, err)
		return Outcome{Route: result.Route}, false, err
	}

	k.emit(ctx, EventCommandAccepted, observability.LevelVerbose, "kernel.Submit", map[string]any{
		"route": result.Route,
	})

	response := result.Response
	if result.Route != routeShutdown {
		response = withSuffix(response, k.emotion.Label())
	}

	k.registers.IncCommands()
	switch result.Route {
	case routeRest, routeShutdown:
	default:
		k.registers.SetState(resource.StateActive)
	}

	k.allocateLocked(ctx, k.cfg.CommandBlockMB, "command:"+result.Route)
	k.announceLocked(response)

	entry, err := k.journal.Append(ctx, journal.KindCommand, map[string]any{
		"command":  cmd.Text,
		"route":    result.Route,
		"response": response,
		"state":    k.statePayloadLocked(),
	})
	if err != nil {
		k.persistenceFailureLocked(ctx, err)
	}

	k.emit(ctx, EventResponse, observability.LevelInfo, "kernel.Submit", map[string]any{
		"route":    result.Route,
		"response": response,
		"dopamine": k.emotion.Dopamine(),
		"load":     k.registers.Load(),
	})

	return Outcome{
		Route:    result.Route,
		Response: response,
		Entry:    entry,
	}, result.Route == routeShutdown, nil
}

func (k *Kernel) handlerFailureLocked(ctx context.Context, cmd command.Command, route string, err error) {
	k.registers.IncErrors()
	k.feed.Push("Processing error.")

	if _, aerr := k.journal.Append(ctx, journal.KindError, map[string]any{
		"command": cmd.Text,
		"route":   route,
		"error":   err.Error(),
	}); aerr != nil {
		k.persistenceFailureLocked(ctx, aerr)
	}

	k.emit(ctx, EventHandlerError, observability.LevelError, "kernel.Submit", map[string]any{
		"route": route,
		"error": err.Error(),
	})
}

// persistenceFailureLocked counts a failed journal write. The journal reports
// ErrPersistence once, when it degrades.
func (k *Kernel) persistenceFailureLocked(ctx context.Context, err error) {
	k.registers.IncErrors()
	if errors.Is(err, journal.ErrPersistence) {
		k.feed.Push("Storage unavailable. Journal kept in memory.")
		k.emitDegraded(ctx, err)
		return
	}
	k.logger.Warn(
		"journal append failed",
		slog.String("error", err.Error()),
	)
}

func (k *Kernel) emitDegraded(ctx context.Context, cause error) {
	data := map[string]any{}
	if cause != nil {
		data["error"] = cause.Error()
	}
	k.emit(ctx, EventPersistenceDegraded, observability.LevelError, "kernel.journal", data)
}

// announceLocked pushes text to the feed and queues it for speech.
func (k *Kernel) announceLocked(text string) {
	k.feed.Push(text)
	if err := k.speech.Say(text); err != nil {
		k.logger.Debug(
			"speech skipped",
			slog.String("error", err.Error()),
		)
	}
}

// allocateLocked registers a RAM block and applies the cleanup relief when
// the allocation triggered a cleanup.
func (k *Kernel) allocateLocked(ctx context.Context, sizeMB float64, reason string) {
	if sizeMB <= 0 {
		return
	}
	alloc, err := k.ram.Allocate(sizeMB, reason)
	if err != nil {
		k.logger.Warn(
			"ram allocation rejected",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return
	}
	if alloc.Cleanup != nil {
		k.cleanedLocked(ctx, *alloc.Cleanup, "allocation")
	}
}

func (k *Kernel) cleanedLocked(ctx context.Context, c resource.Cleanup, trigger string) {
	k.emotion.Adjust(k.cfg.Deltas.CleanupRelief)
	k.emit(ctx, EventRAMCleanup, observability.LevelVerbose, "kernel.ram", map[string]any{
		"trigger":   trigger,
		"before_mb": c.BeforeMB,
		"after_mb":  c.AfterMB,
		"removed":   c.Removed,
	})
}

// statePayloadLocked captures the aggregates for a journal entry.
func (k *Kernel) statePayloadLocked() map[string]any {
	dopamine, label := k.emotion.State()
	light := k.light.State()
	return map[string]any{
		"state":           string(k.registers.State()),
		"load":            k.registers.Load(),
		"ram_used_mb":     k.ram.UsedMB(),
		"ram_capacity_mb": k.ram.CapacityMB(),
		"dopamine":        dopamine,
		"emotion":         string(label),
		"light_on":        light.On,
		"light_intensity": light.Intensity,
	}
}

func (k *Kernel) emit(ctx context.Context, t observability.EventType, level observability.Level, source string, data map[string]any) {
	k.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: k.now(),
		Source:    source,
		Data:      data,
	})
}

// withSuffix appends the label's emotional coloring to a response.
func withSuffix(response string, label resource.Label) string {
	switch label {
	case resource.LabelCalm:
		return response + " Focus level optimal."
	case resource.LabelContent:
		return response + " System performance satisfactory."
	case resource.LabelSatisfied:
		return response + " Operation efficiency is high."
	case resource.LabelExcited:
		return response + " All subsystems energized."
	default:
		return response
	}
}

// unavailableStore fails every call so the journal degrades on load.
type unavailableStore struct {
	err error
}

func (s *unavailableStore) Load(context.Context) (*journal.Document, error) {
	return nil, fmt.Errorf("%w: %w", journal.ErrLoadFailed, s.err)
}

func (s *unavailableStore) Save(context.Context, *journal.Document) error {
	return fmt.Errorf("%w: %w", journal.ErrSaveFailed, s.err)
}

func (s *unavailableStore) Close() error { return nil }
