package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
)

// State is the lifecycle phase of a session.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Option customises a session.
type Option func(*Session)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOwner records the user that opened the session.
func WithOwner(userID string) Option {
	return func(s *Session) {
		s.owner = userID
	}
}

// Session drives one add or edit interaction. It is safe for concurrent use; while a save or
// delete is in flight every mutating call fails with ErrSessionBusy.
type Session struct {
	mu       sync.Mutex
	id       string
	owner    string
	kind     EventKind
	strategy Strategy
	sctx     *SessionContext
	bundle   Bundle
	form     FormState
	state    State
	busy     bool
	touched  time.Time
	now      func() time.Time
	logger   *zap.Logger
}

// View is a read-only snapshot of a session.
type View struct {
	ID         string         `json:"id"`
	Kind       EventKind      `json:"kind"`
	Mode       Mode           `json:"mode"`
	State      State          `json:"state"`
	Busy       bool           `json:"busy"`
	Form       FormState      `json:"form"`
	Descriptor FormDescriptor `json:"descriptor"`
	Shape      string         `json:"shape"`
}

// Open selects the strategy for kind, resolves the bundle once and seeds the form.
func Open(kind EventKind, sctx *SessionContext, bundle APIBundle, opts ...Option) (*Session, error) {
	strategy, ok := Lookup(kind)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event kind "+string(kind))
	}
	if sctx == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session context is required")
	}
	if sctx.Mode == ModeEdit && sctx.Initial == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "edit sessions need the original event")
	}
	if sctx.Mode == "" {
		sctx.Mode = ModeAdd
	}

	resolved, err := bundle.Resolve()
	if err != nil {
		return nil, err
	}
	if err := strategy.Requires(sctx.Mode, resolved); err != nil {
		return nil, err
	}

	s := &Session{
		id:       uuid.NewString(),
		kind:     kind,
		strategy: strategy,
		sctx:     sctx,
		bundle:   resolved,
		state:    StateOpen,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.form = strategy.Init(sctx)
	s.touched = s.now()
	s.logger.Debug("editor session opened",
		zap.String("session_id", s.id),
		zap.String("kind", string(kind)),
		zap.String("mode", string(sctx.Mode)),
		zap.String("shape", resolved.ShapeName()),
	)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Owner returns the user that opened the session, if recorded.
func (s *Session) Owner() string { return s.owner }

// Kind returns the event kind being edited.
func (s *Session) Kind() EventKind { return s.kind }

// View returns the current state, form and render description.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:         s.id,
		Kind:       s.kind,
		Mode:       s.sctx.Mode,
		State:      s.state,
		Busy:       s.busy,
		Form:       s.form,
		Descriptor: s.strategy.Describe(s.form, s.sctx),
		Shape:      s.bundle.ShapeName(),
	}
}

// Form returns the current form state.
func (s *Session) Form() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Patch merges p into the form.
func (s *Session) Patch(p FormPatch) (FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return s.form, err
	}
	s.form = s.form.Apply(p)
	s.touched = s.now()
	return s.form, nil
}

// Validate returns every problem with the current form.
func (s *Session) Validate() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, appErrors.ErrSessionClosed
	}
	s.touched = s.now()
	return s.strategy.Validate(s.form, s.sctx), nil
}

// Confirm validates and saves. On validation failure the session stays open and the error
// carries the messages. The session closes only after the backend accepted the save.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}
	if messages := s.strategy.Validate(s.form, s.sctx); len(messages) > 0 {
		s.touched = s.now()
		s.mu.Unlock()
		s.logger.Debug("editor confirm rejected", zap.String("session_id", s.id), zap.Strings("errors", messages))
		return validationFailure(messages)
	}
	form := s.form
	s.busy = true
	s.mu.Unlock()

	err := s.strategy.Save(ctx, form, s.sctx, s.bundle)
	return s.settle("save", err)
}

// Delete removes the edited event. Deletion is not validated.
func (s *Session) Delete(ctx context.Context) error {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.sctx.Editing() {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrValidation, "only existing events can be deleted")
	}
	current := *s.sctx.Initial
	current.RepeatCount = s.form.RepeatCount
	s.busy = true
	s.mu.Unlock()

	err := s.strategy.Delete(ctx, current, s.sctx, s.bundle)
	return s.settle("delete", err)
}

// Cancel closes the session and discards the form.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return appErrors.ErrSessionBusy
	}
	if s.state == StateClosed {
		return nil
	}
	s.close()
	s.logger.Debug("editor session cancelled", zap.String("session_id", s.id))
	return nil
}

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateClosed
}

// idleSince reports whether the session is idle and untouched since before t.
func (s *Session) idleSince(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.busy && s.touched.Before(t)
}

func (s *Session) settle(action string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.touched = s.now()
	if err != nil {
		s.logger.Warn("editor "+action+" failed",
			zap.String("session_id", s.id),
			zap.String("kind", string(s.kind)),
			zap.Error(err),
		)
		return err
	}
	s.close()
	s.logger.Info("editor "+action+" succeeded", zap.String("session_id", s.id), zap.String("kind", string(s.kind)))
	return nil
}

func (s *Session) ready() error {
	if s.busy {
		return appErrors.ErrSessionBusy
	}
	if s.state == StateClosed {
		return appErrors.ErrSessionClosed
	}
	return nil
}

func (s *Session) close() {
	s.state = StateClosed
	s.form = FormState{}
}
