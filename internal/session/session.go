// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session owns the conversion state machine of one user session:
//
//	idle --select--> processing --ticks--> completed
//	                      |
//	                      +--engine error--> error
//	any --reset--> idle
//
// While processing, a run goroutine advances progress by a random step on
// every tick. When the next step would reach 100 the run asks the engine for
// the converted file and the session moves to completed (progress exactly
// 100) or to error. Each run is identified by a generation number; selecting
// a new file, resetting, or closing cancels the current run and waits for it
// to exit, and a run only mutates state while its generation is current.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/pdf2word/internal/artifact"
	"github.com/pdiddy/pdf2word/internal/engine"
	"github.com/pdiddy/pdf2word/pkg/types"
)

// Progress step bounds: each tick adds a value drawn uniformly from
// [MinStep, MaxStep).
const (
	MinStep = 5.0
	MaxStep = 20.0
)

const recordTimeout = 5 * time.Second

var (
	// ErrNotCompleted is returned by Download outside the completed state.
	ErrNotCompleted = errors.New("conversion has not completed")

	// ErrClosed is returned by Select after Close.
	ErrClosed = errors.New("session closed")
)

// Recorder stores finished runs. history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, rec types.ConversionRecord) (int64, error)
}

// EventKind classifies an Event.
type EventKind string

const (
	EventState    EventKind = "state"
	EventProgress EventKind = "progress"
	EventNotice   EventKind = "notice"
)

// Event is published to subscribers on every observable change.
type Event struct {
	Kind     EventKind           `json:"kind"`
	Snapshot types.Snapshot      `json:"snapshot"`
	Notice   *types.Notification `json:"notice,omitempty"`
}

// Options configures an Orchestrator. Zero fields take defaults.
type Options struct {
	// Engine performs the conversion (default: simulated).
	Engine engine.Engine

	// Interval is the tick period (default 200ms).
	Interval time.Duration

	// Rand draws progress steps (default: engine.DefaultRand).
	Rand engine.Rand

	// NewTicker starts run tickers (default: NewTimeTicker).
	NewTicker TickerFunc

	// Recorder, when set, receives every finished run.
	Recorder Recorder

	Logger *slog.Logger
	Now    func() time.Time
}

func (o *Options) defaults() {
	if o.Rand == nil {
		o.Rand = engine.DefaultRand
	}
	if o.Engine == nil {
		o.Engine = engine.NewSimulated(o.Rand, 0)
	}
	if o.Interval <= 0 {
		o.Interval = types.DefaultTickInterval
	}
	if o.NewTicker == nil {
		o.NewTicker = NewTimeTicker
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// run is the handle of one in-flight conversion.
type run struct {
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	src     engine.Source
	started time.Time
}

// Orchestrator is the conversion state machine of one session. It is safe
// for concurrent use.
type Orchestrator struct {
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	state     types.ConversionState
	progress  float64
	original  *types.FileDescriptor
	converted *types.FileDescriptor
	result    engine.Result
	failure   string
	notice    *types.Notification
	gen       uint64
	run       *run
	subs      map[int]chan Event
	nextSub   int
	closed    bool
}

// New returns an idle orchestrator.
func New(opts Options) *Orchestrator {
	opts.defaults()
	return &Orchestrator{
		opts:  opts,
		log:   opts.Logger,
		state: types.StateIdle,
		subs:  make(map[int]chan Event),
	}
}

// Select records src as the original file and starts a new run. Any
// in-flight run is cancelled first and has exited when Select returns.
func (o *Orchestrator) Select(src engine.Source) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	prev := o.detachLocked()

	o.gen++
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		gen:     o.gen,
		cancel:  cancel,
		done:    make(chan struct{}),
		src:     src,
		started: o.opts.Now(),
	}
	o.run = r

	orig := src.Descriptor
	o.original = &orig
	o.converted = nil
	o.result = engine.Result{}
	o.failure = ""
	o.notice = nil
	o.progress = 0
	o.state = types.StateProcessing
	o.publishLocked(EventState, nil)
	o.mu.Unlock()

	wait(prev)

	o.log.Info("conversion started",
		"file", orig.Name, "size", orig.Size, "engine", o.opts.Engine.Name(), "run", r.gen)
	go o.loop(ctx, r)
	return nil
}

// Reset discards both descriptors, zeroes progress, and returns to idle.
// An in-flight run is cancelled and has exited when Reset returns.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	prev := o.detachLocked()
	o.gen++
	o.state = types.StateIdle
	o.progress = 0
	o.original = nil
	o.converted = nil
	o.result = engine.Result{}
	o.failure = ""
	o.notice = nil
	if !o.closed {
		o.publishLocked(EventState, nil)
	}
	o.mu.Unlock()

	if prev != nil {
		o.log.Info("conversion cancelled", "run", prev.gen)
	}
	wait(prev)
}

// Close cancels any run and closes all subscriptions. The orchestrator
// rejects new selections afterwards.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	prev := o.detachLocked()
	o.gen++
	for id, ch := range o.subs {
		close(ch)
		delete(o.subs, id)
	}
	o.mu.Unlock()

	wait(prev)
}

// Snapshot returns a copy of the current view state.
func (o *Orchestrator) Snapshot() types.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// TakeNotice returns the latest unread notification and clears it.
func (o *Orchestrator) TakeNotice() (types.Notification, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.notice == nil {
		return types.Notification{}, false
	}
	n := *o.notice
	o.notice = nil
	return n, true
}

// Download builds the converted document. Outside the completed state it
// produces nothing and returns ErrNotCompleted.
func (o *Orchestrator) Download() (artifact.Artifact, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != types.StateCompleted {
		return artifact.Artifact{}, ErrNotCompleted
	}

	a, err := artifact.Build(artifact.Input{
		Original:  *o.original,
		Converted: *o.converted,
		Content:   o.result.Content,
		Pages:     o.result.Pages,
		CreatedAt: o.opts.Now(),
	})
	if err != nil {
		return artifact.Artifact{}, err
	}

	o.publishLocked(EventNotice, &types.Notification{
		Title:       "Download Started",
		Description: "Your Word document is being downloaded.",
		Level:       types.NoticeInfo,
	})
	return a, nil
}

// Subscribe returns a channel of events and a function that ends the
// subscription. Events are dropped for a subscriber whose buffer is full.
// The channel is closed by the cancel function or by Close.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Event, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan Event, buffer)
	if o.closed {
		close(ch)
		return ch, func() {}
	}
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if c, ok := o.subs[id]; ok {
			close(c)
			delete(o.subs, id)
		}
	}
}

func (o *Orchestrator) loop(ctx context.Context, r *run) {
	defer close(r.done)

	t := o.opts.NewTicker(o.opts.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			finish, live := o.advance(r)
			if !live {
				return
			}
			if finish {
				o.complete(ctx, r)
				return
			}
		}
	}
}

// advance applies one tick. finish reports that the next step reaches 100;
// live is false once r is no longer the current run.
func (o *Orchestrator) advance(r *run) (finish, live bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != r.gen || o.state != types.StateProcessing {
		return false, false
	}
	next := o.progress + MinStep + o.opts.Rand.Float64()*(MaxStep-MinStep)
	if next >= 100 {
		return true, true
	}
	o.progress = next
	o.publishLocked(EventProgress, nil)
	return false, true
}

func (o *Orchestrator) complete(ctx context.Context, r *run) {
	res, err := o.opts.Engine.Convert(ctx, r.src)
	// Download only needs the descriptors and the engine result.
	r.src.Content = nil

	o.mu.Lock()
	if o.gen != r.gen || ctx.Err() != nil {
		o.mu.Unlock()
		return
	}

	rec := types.ConversionRecord{
		Original:   r.src.Descriptor,
		Engine:     o.opts.Engine.Name(),
		StartedAt:  r.started,
		FinishedAt: o.opts.Now(),
	}

	if err != nil {
		o.state = types.StateError
		o.failure = err.Error()
		rec.Outcome = types.OutcomeFailed
		rec.Error = o.failure
		o.publishLocked(EventState, &types.Notification{
			Title:       "Conversion Failed",
			Description: o.failure,
			Level:       types.NoticeError,
		})
	} else {
		conv := res.Descriptor
		o.converted = &conv
		o.result = res
		o.progress = 100
		o.state = types.StateCompleted
		rec.Outcome = types.OutcomeCompleted
		rec.Converted = &conv
		o.publishLocked(EventState, &types.Notification{
			Title:       "Conversion Complete!",
			Description: "Your PDF has been successfully converted to Word format.",
			Level:       types.NoticeSuccess,
		})
	}
	o.mu.Unlock()

	if err != nil {
		o.log.Warn("conversion failed", "file", rec.Original.Name, "run", r.gen, "err", err)
	} else {
		o.log.Info("conversion completed",
			"file", rec.Original.Name, "output", rec.Converted.Name, "size", rec.Converted.Size, "run", r.gen)
	}
	o.record(ctx, rec)
}

func (o *Orchestrator) record(ctx context.Context, rec types.ConversionRecord) {
	if o.opts.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if _, err := o.opts.Recorder.Record(ctx, rec); err != nil {
		o.log.Warn("recording conversion history", "file", rec.Original.Name, "err", err)
	}
}

// detachLocked cancels and forgets the current run, returning it so the
// caller can wait for it outside the lock.
func (o *Orchestrator) detachLocked() *run {
	r := o.run
	o.run = nil
	if r != nil {
		r.cancel()
	}
	return r
}

func wait(r *run) {
	if r != nil {
		<-r.done
	}
}

func (o *Orchestrator) snapshotLocked() types.Snapshot {
	s := types.Snapshot{
		State:    o.state,
		Progress: o.progress,
		Error:    o.failure,
	}
	if o.original != nil {
		d := *o.original
		s.Original = &d
	}
	if o.converted != nil {
		d := *o.converted
		s.Converted = &d
	}
	return s
}

func (o *Orchestrator) publishLocked(kind EventKind, n *types.Notification) {
	if n != nil {
		o.notice = n
	}
	ev := Event{Kind: kind, Snapshot: o.snapshotLocked(), Notice: n}
	for _, ch := range o.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
