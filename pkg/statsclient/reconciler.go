package statsclient

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/dto"
)

// State of the push subscription.
type State int

const (
	// Disconnected arms the polling timer.
	Disconnected State = iota
	// Connected relies on pushes only.
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// DefaultPollInterval is the fallback polling period while disconnected.
const DefaultPollInterval = 30 * time.Second

// Config wires a Reconciler.
type Config struct {
	Fetcher  Fetcher
	Channel  PushChannel
	Signal   *RefreshSignal
	Clock    clockwork.Clock
	Interval time.Duration
	Logger   zerolog.Logger

	// OnSnapshot is called after every replacement of the local snapshot.
	OnSnapshot func(snapshot dto.StatsSnapshot, source string)
	// OnState is called on every push channel transition.
	OnState func(state State)
}

// Reconciler holds the local snapshot. Every incoming snapshot, pushed or
// pulled, replaces it wholesale. The polling ticker exists only while the push
// channel is Disconnected.
type Reconciler struct {
	fetcher    Fetcher
	channel    PushChannel
	signal     *RefreshSignal
	clock      clockwork.Clock
	interval   time.Duration
	logger     zerolog.Logger
	onSnapshot func(dto.StatsSnapshot, string)
	onState    func(State)

	mu        sync.RWMutex
	snapshot  dto.StatsSnapshot
	loaded    bool
	state     State
	connected bool
	ticker    clockwork.Ticker
}

// NewReconciler constructs a reconciler in the Disconnected state.
func NewReconciler(cfg Config) *Reconciler {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Signal == nil {
		cfg.Signal = NewRefreshSignal()
	}

	return &Reconciler{
		fetcher:    cfg.Fetcher,
		channel:    cfg.Channel,
		signal:     cfg.Signal,
		clock:      cfg.Clock,
		interval:   cfg.Interval,
		logger:     cfg.Logger.With().Str("component", "stats_reconciler").Logger(),
		onSnapshot: cfg.OnSnapshot,
		onState:    cfg.OnState,
		state:      Disconnected,
	}
}

// Snapshot returns the local snapshot and whether one has been received yet.
func (r *Reconciler) Snapshot() (dto.StatsSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot, r.loaded
}

// State returns the push channel state.
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Polling reports whether the fallback timer is armed.
func (r *Reconciler) Polling() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ticker != nil
}

// Signal exposes the shared refresh flag so producers can mark it.
func (r *Reconciler) Signal() *RefreshSignal {
	return r.signal
}

// Run pulls once, subscribes to the push channel and reconciles until ctx ends.
func (r *Reconciler) Run(ctx context.Context) {
	events := make(chan Event, 8)
	channelDone := make(chan struct{})
	if r.channel != nil {
		go func() {
			defer close(channelDone)
			r.channel.Run(ctx, events)
		}()
	} else {
		close(channelDone)
	}

	r.pull(ctx, "mount")
	r.arm()
	defer r.disarm()

	for {
		select {
		case <-ctx.Done():
			<-channelDone
			return
		case event := <-events:
			r.handle(ctx, event)
		case <-r.signal.C():
			if r.signal.Take() {
				r.pull(ctx, "signal")
			}
		case <-r.tick():
			r.pull(ctx, "poll")
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, event Event) {
	switch event.Kind {
	case EventConnected:
		r.disarm()
		reconnect := r.transition(Connected)
		if reconnect {
			r.pull(ctx, "reconnect")
		}
	case EventDisconnected:
		r.arm()
		r.transition(Disconnected)
	case EventSnapshot:
		r.replace(event.Snapshot, "push")
	}
}

// transition records the new state and reports whether a Connected state
// follows an earlier connection.
func (r *Reconciler) transition(state State) bool {
	r.mu.Lock()
	changed := r.state != state
	reconnect := state == Connected && r.connected
	r.state = state
	if state == Connected {
		r.connected = true
	}
	r.mu.Unlock()

	if changed {
		r.logger.Info().Str("state", state.String()).Msg("push channel state changed")
		if r.onState != nil {
			r.onState(state)
		}
	}
	return reconnect
}

func (r *Reconciler) pull(ctx context.Context, source string) {
	if r.fetcher == nil {
		return
	}
	snapshot, err := r.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn().Err(err).Str("source", source).Msg("stats refresh failed, keeping previous snapshot")
		}
		return
	}
	r.replace(snapshot, source)
}

func (r *Reconciler) replace(snapshot dto.StatsSnapshot, source string) {
	r.mu.Lock()
	r.snapshot = snapshot
	r.loaded = true
	r.mu.Unlock()

	if r.onSnapshot != nil {
		r.onSnapshot(snapshot, source)
	}
}

func (r *Reconciler) arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticker == nil {
		r.ticker = r.clock.NewTicker(r.interval)
	}
}

func (r *Reconciler) disarm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

// tick is nil while Connected, which blocks that select case.
func (r *Reconciler) tick() <-chan time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.ticker == nil {
		return nil
	}
	return r.ticker.Chan()
}
