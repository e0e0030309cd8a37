package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/cascade"
	"areasigns.ai/internal/sim/confirm"
	"areasigns.ai/internal/sim/regions"
	"areasigns.ai/internal/sim/tuning"
)

var ErrStopped = errors.New("engine stopped")

type Deps struct {
	Registry *binding.Registry
	Store    *regions.Store
	Geometry Geometry
	Perms    Permissions
	Msg      Messenger
	Renderer Renderer
	Audit    AuditLogger
	Logger   *log.Logger
	Now      func() time.Time
}

// Engine serializes every signal through one goroutine. Handlers, deferred
// tasks and listeners all run there, so the indices need no locking.
type Engine struct {
	cfg    tuning.Tuning
	logger *log.Logger
	now    func() time.Time

	reg    *binding.Registry
	store  *regions.Store
	geo    Geometry
	perms  Permissions
	msg    Messenger
	render Renderer
	audit  AuditLogger

	guard   *confirm.Guard
	cascade *cascade.Cascade

	stages   []Stage
	builtins int
	deferred []func()

	// actor of the signal being handled; attributed in audit entries.
	actor     string
	restoring bool

	ready      atomic.Bool
	dispatched atomic.Uint64
	regionsN   atomic.Int64
	bindingsN  atomic.Int64

	inbox    chan Envelope
	stop     chan struct{}
	stopOnce sync.Once
}

func New(cfg tuning.Tuning, d Deps) (*Engine, error) {
	if d.Registry == nil || d.Store == nil || d.Geometry == nil || d.Perms == nil {
		return nil, errors.New("engine: registry, store, geometry and perms are required")
	}
	blacklist, err := cfg.BlacklistPatterns()
	if err != nil {
		return nil, err
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard, "", 0)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	e := &Engine{
		cfg:    cfg,
		logger: d.Logger,
		now:    d.Now,
		reg:    d.Registry,
		store:  d.Store,
		geo:    d.Geometry,
		perms:  d.Perms,
		msg:    d.Msg,
		render: d.Renderer,
		audit:  d.Audit,
		inbox:  make(chan Envelope, 1024),
		stop:   make(chan struct{}),
	}
	e.guard = confirm.New(cfg.ConfirmWindow(), e.prompt).WithClock(d.Now)

	gate := regions.NewGate(d.Store, d.Perms, d.Geometry, cfg.CreateNodes(), blacklist)
	e.cascade = cascade.New(cascade.Config{
		Tags: map[cascade.Tag]string{
			cascade.TagRent: cfg.SignTags.Rent,
			cascade.TagBuy:  cfg.SignTags.Buy,
			cascade.TagAdd:  cfg.SignTags.Add,
		},
		Nodes:   cfg.CreateNodes(),
		AddSign: cfg.Permissions.AddSign,
	}, cascade.Deps{
		Perms:    d.Perms,
		Geometry: d.Geometry,
		Owners:   d.Geometry,
		Gate:     gate,
		Store:    d.Store,
		Registry: d.Registry,
		Sched:    e,
		Msg:      e,
		Refresh:  e.RefreshRegion,
		Ready:    e.Ready,
	})

	d.Store.AddHook(regions.MaxRegionsHook(d.Store, cfg.MaxRegions))
	d.Store.AddListener(regionHooks{e})
	d.Registry.AddListener(bindingHooks{e})

	e.stages = []Stage{
		{Name: "edit", Handle: e.onEdited},
		{Name: "break", Handle: e.onBroken},
		{Name: "physics", Handle: e.onUnsupported},
		{Name: "click", Handle: e.onClicked},
		{Name: "chunk", Handle: e.onChunkLoaded},
		{Name: "world", Handle: e.onWorld},
		{Name: "command", Handle: e.onCommand},
		{Name: "session", Handle: e.onActorLeft},
	}
	e.builtins = len(e.stages)
	return e, nil
}

// Use inserts st ahead of the built-in stages, after earlier Use calls.
// Must be called before Run.
func (e *Engine) Use(st Stage) {
	if st.Handle == nil {
		return
	}
	n := len(e.stages) - e.builtins
	e.stages = append(e.stages, Stage{})
	copy(e.stages[n+1:], e.stages[n:])
	e.stages[n] = st
}

func (e *Engine) Ready() bool                 { return e.ready.Load() }
func (e *Engine) SetReady(ok bool)            { e.ready.Store(ok) }
func (e *Engine) Registry() *binding.Registry { return e.reg }
func (e *Engine) Store() *regions.Store       { return e.store }

func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.guard.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stop:
			return nil
		case env := <-e.inbox:
			res := e.Dispatch(env.Signal)
			if env.Resp != nil {
				env.Resp <- res
			}
		case <-ticker.C:
			if n := e.guard.Prune(); n > 0 {
				e.logger.Printf("pruned %d expired confirmations", n)
			}
		}
	}
}

// Stop ends Run. Calling it more than once is safe.
func (e *Engine) Stop() { e.stopOnce.Do(func() { close(e.stop) }) }

// Submit queues sig and waits for its result.
func (e *Engine) Submit(ctx context.Context, sig Signal) (Result, error) {
	resp := make(chan Result, 1)
	select {
	case e.inbox <- Envelope{Signal: sig, Resp: resp}:
	case <-e.stop:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case res := <-resp:
		return res, nil
	case <-e.stop:
		return Result{}, ErrStopped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Post queues sig without waiting. It reports false when the inbox is full.
func (e *Engine) Post(sig Signal) bool {
	select {
	case e.inbox <- Envelope{Signal: sig}:
		return true
	default:
		return false
	}
}

// Dispatch runs sig through the stages and then drains deferred tasks.
// Only call it from the goroutine running Run, or when Run is not running.
func (e *Engine) Dispatch(sig Signal) Result {
	e.actor = actorOf(sig)
	defer func() { e.actor = "" }()

	var res Result
	for _, st := range e.stages {
		r := st.Handle(sig)
		if r.Err != nil {
			res.Err = r.Err
		}
		if r.Cancelled {
			res.Cancelled = true
			res.Stage = st.Name
			break
		}
	}
	e.drain()
	e.dispatched.Add(1)
	e.publishCounts()
	return res
}

// Metrics is safe to call from any goroutine.
type Metrics struct {
	Regions    int
	Bindings   int
	Dispatched uint64
	QueueDepth int
}

func (e *Engine) Metrics() Metrics {
	return Metrics{
		Regions:    int(e.regionsN.Load()),
		Bindings:   int(e.bindingsN.Load()),
		Dispatched: e.dispatched.Load(),
		QueueDepth: len(e.inbox),
	}
}

func (e *Engine) publishCounts() {
	e.regionsN.Store(int64(e.store.Len()))
	e.bindingsN.Store(int64(e.reg.Count()))
}

// Defer schedules task to run once the current signal is fully handled.
func (e *Engine) Defer(task func()) {
	if task != nil {
		e.deferred = append(e.deferred, task)
	}
}

func (e *Engine) drain() {
	for len(e.deferred) > 0 {
		task := e.deferred[0]
		e.deferred[0] = nil
		e.deferred = e.deferred[1:]
		task()
	}
	e.deferred = nil
}

// Notify forwards to the messenger; a nil messenger drops the message.
func (e *Engine) Notify(actor, key string, args ...any) {
	if e.msg != nil && actor != "" {
		e.msg.Notify(actor, key, args...)
	}
}

func (e *Engine) prompt(actor, command, key string) {
	e.Notify(actor, key, command)
}

func (e *Engine) has(actor, node string) bool {
	return node != "" && e.perms.Has(actor, node)
}

// Restore loads persisted state without running hooks. Records whose region
// is missing are returned instead of registered.
func (e *Engine) Restore(regs []*regions.Region, recs []*binding.Record) (dangling []*binding.Record, err error) {
	e.restoring = true
	defer func() { e.restoring = false }()

	for _, r := range regs {
		if err := e.store.Load(r); err != nil {
			return nil, err
		}
	}
	for _, rec := range recs {
		if _, ok := e.store.Get(rec.Region.Name); !ok {
			dangling = append(dangling, rec)
			continue
		}
		if err := e.reg.Register(rec); err != nil {
			return nil, err
		}
	}
	e.publishCounts()
	return dangling, nil
}
