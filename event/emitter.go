// Package event implements the runtime's lifecycle event stream: a
// process-local publish point that agent phases push structured events onto.
// Consumers are fire-and-forget; a consumer failure never aborts the agent.
package event

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heyfun-ai/funmax/logging"
)

// Item is one structured lifecycle event.
type Item struct {
	ID        string         `json:"id"`
	ParentID  string         `json:"parent_id,omitempty"`
	Name      string         `json:"name"`
	Step      int            `json:"step"`
	Timestamp time.Time      `json:"timestamp"`
	Content   map[string]any `json:"content,omitempty"`
}

// Handler consumes matching events. A returned error (or panic) is logged
// and swallowed; it never reaches the emitting call.
type Handler func(Item) error

type subscription struct {
	pattern *regexp.Regexp
	handler Handler
}

// EmitterOptions configures an Emitter.
type EmitterOptions struct {
	Logger logging.Logger
}

// Emitter queues events and dispatches them to pattern-matched handlers on a
// dedicated goroutine, decoupling consumers from the emitting agent step.
type Emitter struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Item
	subs    []subscription
	pending int
	closed  bool
	logger  logging.Logger
}

// NewEmitter constructs an Emitter and starts its dispatch loop.
func NewEmitter(optFns ...func(o *EmitterOptions)) *Emitter {
	opts := EmitterOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Emitter{logger: logging.OrNoOp(opts.Logger)}
	e.cond = sync.NewCond(&e.mu)
	go e.loop()
	return e
}

// On registers a handler for event names matching the regex pattern.
func (e *Emitter) On(pattern string, h Handler) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile event pattern %q: %w", pattern, err)
	}
	if h == nil {
		return fmt.Errorf("event handler must not be nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, subscription{pattern: re, handler: h})
	return nil
}

// Emit enqueues an event for asynchronous dispatch. It never blocks on
// consumers. Emitting on a closed emitter is a no-op.
func (e *Emitter) Emit(name string, step int, content map[string]any) {
	item := Item{
		ID:        uuid.NewString(),
		Name:      name,
		Step:      step,
		Timestamp: time.Now().UTC(),
		Content:   content,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.queue = append(e.queue, item)
	e.pending++
	e.cond.Broadcast()
}

// Wait blocks until every previously emitted event has been dispatched.
// Useful for tests and for draining before shutdown.
func (e *Emitter) Wait() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.pending > 0 {
		e.cond.Wait()
	}
}

// Close drains the queue and stops the dispatch loop. Subsequent Emit calls
// are ignored.
func (e *Emitter) Close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	for e.pending > 0 {
		e.cond.Wait()
	}
	e.mu.Unlock()
}

func (e *Emitter) loop() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 {
			if e.closed {
				e.mu.Unlock()
				return
			}
			e.cond.Wait()
		}
		item := e.queue[0]
		e.queue = e.queue[1:]
		subs := make([]subscription, len(e.subs))
		copy(subs, e.subs)
		e.mu.Unlock()

		e.dispatch(item, subs)

		e.mu.Lock()
		e.pending--
		e.cond.Broadcast()
		e.mu.Unlock()
	}
}

func (e *Emitter) dispatch(item Item, subs []subscription) {
	matched := false
	for _, sub := range subs {
		if !sub.pattern.MatchString(item.Name) {
			continue
		}
		matched = true
		e.safeCall(sub.handler, item)
	}
	if !matched && len(subs) > 0 {
		e.logger.Debug("no matching handler for event", "event", item.Name)
	}
}

// safeCall invokes a handler isolating errors and panics from the agent.
func (e *Emitter) safeCall(h Handler, item Item) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked", "event", item.Name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	if err := h(item); err != nil {
		e.logger.Error("event handler failed", "event", item.Name, "error", err.Error())
	}
}
