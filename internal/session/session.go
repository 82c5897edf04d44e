// Package session owns the authenticated user for the running client.
package session

import (
	"context"
	"errors"
	"sync"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/events"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/tokenstore"
)

// User-facing messages.
const (
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
	MsgSessionExpired     = "Session expired. Please login again."
)

var ErrClosed = errors.New("session service closed")

// Session is a copy of the auth state.
type Session struct {
	User            *core.User
	IsAuthenticated bool
	Token           string
	Error           string
	Loading         bool
}

// Service is the single auth session of a client. Create it with New, call
// Init once, and Close on shutdown.
type Service struct {
	auth      remote.Authenticator
	tokens    *tokenstore.Cache
	publisher events.Publisher
	logger    *log.Logger

	mu      sync.Mutex
	state   Session
	subs    map[int]func(Session)
	order   []int
	nextSub int
	closed  bool
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(auth remote.Authenticator, tokens *tokenstore.Cache, opts ...Option) *Service {
	s := &Service{
		auth:      auth,
		tokens:    tokens,
		publisher: events.Nop{},
		logger:    log.Discard(),
		subs:      make(map[int]func(Session)),
		state:     Session{Loading: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentSession)
	return s
}

// Init rehydrates a persisted session. Only a token-store failure is
// returned; a rejected token just leaves the session logged out.
func (s *Service) Init(ctx context.Context) error {
	tok, err := s.tokens.Restore(ctx)
	if err != nil {
		s.update(func(st *Session) { st.Loading = false })
		return err
	}
	if tok == "" {
		s.update(func(st *Session) { st.Loading = false })
		return nil
	}

	s.update(func(st *Session) {
		st.Token = tok
		st.Loading = true
	})

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored token rejected",
			log.FieldOperation, log.OpRestore, log.FieldError, err)
		s.clearToken(ctx)
		s.update(func(st *Session) {
			*st = Session{Error: MsgSessionExpired}
		})
		s.publish(ctx, events.SessionExpired, "", MsgSessionExpired)
		return nil
	}

	s.update(func(st *Session) {
		*st = Session{User: &user, IsAuthenticated: true, Token: tok}
	})
	s.logger.InfoContext(ctx, "Session restored", log.FieldOperation, log.OpRestore)
	s.publish(ctx, events.SessionRestored, user.Email, "")
	return nil
}

// Login authenticates and loads the profile. It reports whether a session
// was established.
func (s *Service) Login(ctx context.Context, c core.Credentials) bool {
	return s.authenticate(ctx, log.OpLogin, MsgLoginFailed, events.SessionLogin, func() (core.AuthToken, error) {
		return s.auth.Login(ctx, c)
	})
}

// Register creates an account and logs into it.
func (s *Service) Register(ctx context.Context, r core.Registration) bool {
	return s.authenticate(ctx, log.OpRegister, MsgRegistrationFailed, events.SessionRegister, func() (core.AuthToken, error) {
		return s.auth.Register(ctx, r)
	})
}

func (s *Service) authenticate(ctx context.Context, op, fallback string, kind events.Kind, call func() (core.AuthToken, error)) bool {
	if s.isClosed() {
		return false
	}
	s.update(func(st *Session) { st.Loading = true })

	tok, err := call()
	if err != nil {
		s.fail(ctx, op, remote.MessageOf(err, fallback), err)
		return false
	}
	if tok.Token == "" {
		// Nothing usable came back; the state is left as it was.
		s.update(func(st *Session) { st.Loading = false })
		return false
	}

	if err := s.tokens.Set(ctx, tok.Token); err != nil {
		s.logger.WarnContext(ctx, "Token not persisted", log.FieldOperation, op, log.FieldError, err)
	}
	s.update(func(st *Session) {
		st.Token = tok.Token
		st.IsAuthenticated = true
		st.Error = ""
	})

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.fail(ctx, op, remote.MessageOf(err, fallback), err)
		return false
	}

	s.update(func(st *Session) {
		st.User = &user
		st.Error = ""
		st.Loading = false
	})
	s.logger.InfoContext(ctx, "Authenticated", log.FieldOperation, op, log.FieldSuccess, true)
	s.publish(ctx, kind, user.Email, "")
	return true
}

func (s *Service) fail(ctx context.Context, op, msg string, err error) {
	s.logger.WarnContext(ctx, "Authentication failed",
		log.FieldOperation, op, log.FieldSuccess, false, log.FieldError, err)
	s.clearToken(ctx)
	s.update(func(st *Session) {
		*st = Session{Error: msg}
	})
}

// Logout forgets the session. It makes no network call and does nothing
// when already logged out.
func (s *Service) Logout() {
	s.mu.Lock()
	empty := s.state.User == nil && !s.state.IsAuthenticated && s.state.Token == "" && s.state.Error == ""
	s.mu.Unlock()
	if empty {
		return
	}

	ctx := context.Background()
	email := ""
	if u := s.Snapshot().User; u != nil {
		email = u.Email
	}
	s.clearToken(ctx)
	s.update(func(st *Session) { *st = Session{} })
	s.logger.Info("Logged out", log.FieldOperation, log.OpLogout)
	s.publish(ctx, events.SessionLogout, email, "")
}

// Expire ends the session after the API rejected its token.
func (s *Service) Expire(msg string) {
	if msg == "" {
		msg = MsgSessionExpired
	}
	ctx := context.Background()
	s.clearToken(ctx)
	s.update(func(st *Session) { *st = Session{Error: msg} })
	s.logger.Warn("Session expired", log.FieldOperation, log.OpLogout)
	s.publish(ctx, events.SessionExpired, "", msg)
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.state)
}

// Loading reports whether an auth operation is in flight.
func (s *Service) Loading() bool {
	return s.Snapshot().Loading
}

// Subscribe calls fn after every state change until the returned function
// is called.
func (s *Service) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Close drops all subscribers. Later auth calls return false.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]func(Session))
	s.order = nil
}

func (s *Service) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// update applies fn and notifies subscribers with the new state when it
// changed.
func (s *Service) update(fn func(*Session)) {
	s.mu.Lock()
	before := copySession(s.state)
	fn(&s.state)
	after := copySession(s.state)
	var fns []func(Session)
	if !equal(before, after) {
		for _, id := range s.order {
			fns = append(fns, s.subs[id])
		}
	}
	s.mu.Unlock()

	for _, f := range fns {
		f(copySession(after))
	}
}

func (s *Service) clearToken(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear stored token", log.FieldError, err)
	}
}

func (s *Service) publish(ctx context.Context, kind events.Kind, email, msg string) {
	ev := events.New(kind)
	ev.UserEmail = email
	ev.Message = msg
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", log.FieldEvent, string(kind), log.FieldError, err)
	}
}

func copySession(in Session) Session {
	out := in
	if in.User != nil {
		u := *in.User
		out.User = &u
	}
	return out
}

func equal(a, b Session) bool {
	if a.IsAuthenticated != b.IsAuthenticated || a.Token != b.Token ||
		a.Error != b.Error || a.Loading != b.Loading {
		return false
	}
	if (a.User == nil) != (b.User == nil) {
		return false
	}
	return a.User == nil || *a.User == *b.User
}
