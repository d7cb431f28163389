package editor

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Store keeps open sessions in memory. Idle sessions expire after the TTL unless an action is in
// flight.
type Store struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*Session
}

// NewStore builds a store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{ttl: ttl, now: time.Now, items: make(map[string]*Session)}
}

// Put registers a session.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID()] = sess
}

// Get returns a live session. Expired sessions are dropped on access.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if sess.idleSince(s.now().Add(-s.ttl)) {
		s.Delete(id)
		return nil, false
	}
	return sess, true
}

// Delete drops a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Len counts stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep drops closed and expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.items {
		if sess.Closed() || sess.idleSince(cutoff) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Janitor sweeps a store on a cron schedule.
type Janitor struct {
	cron   *cron.Cron
	store  *Store
	logger *zap.Logger
	report func(remaining int)
}

// NewJanitor schedules Sweep with a cron spec such as "@every 1m". report, when set, receives the
// store size after every sweep.
func NewJanitor(store *Store, spec string, logger *zap.Logger, report func(remaining int)) (*Janitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = "@every 1m"
	}
	j := &Janitor{cron: cron.New(), store: store, logger: logger, report: report}
	if _, err := j.cron.AddFunc(spec, j.run); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) run() {
	removed := j.store.Sweep()
	remaining := j.store.Len()
	if removed > 0 {
		j.logger.Info("editor sessions swept", zap.Int("removed", removed), zap.Int("remaining", remaining))
	}
	if j.report != nil {
		j.report(remaining)
	}
}

// Start runs the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running sweep.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}
