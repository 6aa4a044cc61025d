package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"filesched/internal/handler"
	"filesched/internal/history"
	"filesched/internal/store"
	"filesched/internal/task"
	logx "filesched/pkg/logx"
)

var (
	// ErrAlreadyScheduled reports an idempotent re-add. It is informational:
	// the existing task is untouched and no state changed.
	ErrAlreadyScheduled = errors.New("task already scheduled")

	// ErrNotFound reports an unschedule of a name in neither the registry
	// nor the store.
	ErrNotFound = errors.New("no task found")
)

// Service owns the live trigger table and is the only writer of the task
// store. One instance per process; the control surface and bootstrap hold
// a reference, never ambient globals.
type Service struct {
	log   logx.Logger
	store *store.Store
	sink  history.Sink

	// mu serializes every read-store/mutate-registry/write-store cycle.
	// Firing does not take it: handlers run on cron's per-entry goroutines
	// and only touch the history sink.
	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]cron.EntryID
}

func New(st *store.Store, sink history.Sink, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:     log,
		store:   st,
		sink:    sink,
		c:       cron.New(),
		entries: map[string]cron.EntryID{},
	}
}

// Start begins firing triggers. Registrations made before Start are held
// by cron and begin counting their interval from here.
func (s *Service) Start() {
	s.c.Start()
	s.log.Info("scheduler started", logx.Int("triggers", s.TriggerCount()))
}

// Stop halts future fires and waits for in-flight handlers to finish.
// Removal semantics apply: a running handler is never interrupted.
func (s *Service) Stop(ctx context.Context) {
	done := s.c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; handlers still running")
	}
	s.log.Info("scheduler stopped")
}

// Schedule validates, registers a recurring trigger, persists the task and
// records the scheduling event. The returned name is the derived task key.
//
// Validation failures leave both the store and the registry untouched.
// Re-adding identical parameters returns the name with ErrAlreadyScheduled.
func (s *Service) Schedule(t task.Task) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	name := t.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.store.Load()
	_, inStore := tasks[name]
	_, live := s.entries[name]
	if inStore || live {
		if inStore && !live {
			// Store entry lost its trigger (e.g. hand-edited table while
			// running); re-establish it rather than leaving it dead.
			s.log.Warn("task persisted without live trigger; re-registering", logx.String("task", name))
			s.registerLocked(name, t)
		}
		return name, ErrAlreadyScheduled
	}

	s.registerLocked(name, t)

	tasks[name] = t
	if err := s.store.Save(tasks); err != nil {
		// Persist failed: roll the trigger back so the invariant
		// "trigger implies store entry" holds.
		s.removeTriggerLocked(name)
		return "", fmt.Errorf("persist task: %w", err)
	}

	s.append(history.Record{
		TaskName:  name,
		Directory: t.Directory,
		Status:    fmt.Sprintf("Task scheduled every %d %s", t.Interval, t.Unit),
		Level:     history.LevelInfo,
	})
	s.log.Info("task scheduled", logx.String("task", name), logx.Int("interval", t.Interval), logx.String("unit", string(t.Unit)))
	return name, nil
}

// Unschedule cancels the live trigger and removes the persisted entry
// atomically under the registry lock. A store entry without a trigger is
// still removed (repair path); history is never deleted.
func (s *Service) Unschedule(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.store.Load()
	_, inStore := tasks[name]
	live := s.removeTriggerLocked(name)

	if !inStore && !live {
		return fmt.Errorf("%w with name %q", ErrNotFound, name)
	}
	if inStore && !live {
		s.log.Warn("task had no live trigger; removing store entry anyway", logx.String("task", name))
	}
	if inStore {
		delete(tasks, name)
		if err := s.store.Save(tasks); err != nil {
			return fmt.Errorf("persist task table: %w", err)
		}
	}

	s.append(history.Record{
		TaskName: name,
		Status:   "Task removed",
		Level:    history.LevelInfo,
	})
	s.log.Info("task removed", logx.String("task", name))
	return nil
}

// List returns human-readable task summaries, sorted by name. The store is
// the source of truth here; live timer state is not consulted.
func (s *Service) List() []string {
	s.mu.Lock()
	tasks := s.store.Load()
	s.mu.Unlock()

	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, tasks[name].Summary())
	}
	return out
}

// Reconcile rebuilds live triggers from the persisted table. It reads the
// store exactly once, skips malformed entries with a warning (they stay in
// the table until fixed or removed), and neither re-persists nor emits
// duplicate "scheduled" records. Registration is idempotent by name, so
// running it again replaces triggers instead of duplicating them.
func (s *Service) Reconcile() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.store.Load()

	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	restored := 0
	for _, name := range names {
		t := tasks[name]
		if err := t.Validate(); err != nil {
			s.log.Warn("skipping malformed task", logx.String("task", name), logx.Err(err))
			continue
		}
		s.registerLocked(name, t)
		restored++
	}
	s.log.Info("tasks reconciled", logx.Int("restored", restored), logx.Int("skipped", len(names)-restored))
	return restored
}

// TriggerCount reports the number of live triggers.
func (s *Service) TriggerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// registerLocked binds the task's handler (arguments captured now, not
// re-read per fire) to a recurring trigger at the normalized interval.
// An existing trigger with the same name is replaced. Call with mu held.
func (s *Service) registerLocked(name string, t task.Task) {
	every, err := t.Every()
	if err != nil {
		// Callers validate first; this is unreachable for well-formed tasks.
		s.log.Error("refusing to register task", logx.String("task", name), logx.Err(err))
		return
	}
	s.removeTriggerLocked(name)

	h := handler.For(t)
	id := s.c.Schedule(cron.Every(every), cron.FuncJob(func() {
		s.fire(name, t, h)
	}))
	s.entries[name] = id
	s.log.Debug("trigger registered", logx.String("task", name), logx.Duration("every", every))
}

// removeTriggerLocked cancels the live trigger if present. Call with mu held.
func (s *Service) removeTriggerLocked(name string) bool {
	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.c.Remove(id)
	delete(s.entries, name)
	return true
}

// fire runs one handler invocation and records exactly one execution
// record. Handler faults (including panics) become ERROR records; they
// never escalate, so the trigger keeps firing.
func (s *Service) fire(name string, t task.Task, h handler.Func) {
	started := time.Now()
	out := runSafely(name, t, h)

	s.append(history.Record{
		TaskName:  name,
		Directory: t.Directory,
		Output:    out.Output,
		Status:    out.Status,
		Level:     out.Level,
		Timestamp: time.Now(),
	})

	dur := time.Since(started)
	if out.Level == history.LevelError {
		s.log.Warn("task fire failed", logx.String("task", name), logx.String("status", out.Status), logx.Duration("dur", dur))
		return
	}
	s.log.Debug("task fired", logx.String("task", name), logx.String("status", out.Status), logx.Duration("dur", dur))
}

func runSafely(name string, t task.Task, h handler.Func) (out handler.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = handler.Outcome{
				Status: fmt.Sprintf("Error: panic in handler for '%s': %v", name, r),
				Level:  history.LevelError,
			}
		}
	}()
	return h(context.Background(), t)
}

func (s *Service) append(r history.Record) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sink.Append(ctx, r); err != nil {
		s.log.Error("history append failed", logx.String("task", r.TaskName), logx.Err(err))
	}
}
