// Package guard gates access to authenticated functionality. It never decides
// authentication itself; it reads the session controller's state and turns it
// into an allow/wait/redirect decision, optionally narrowed by role.
package guard

import (
	"context"
	"errors"
	"sync"

	"github.com/rampforge/rampforge/internal/client/models"
	"github.com/rampforge/rampforge/internal/client/session"
	"github.com/rampforge/rampforge/internal/logging"
)

// Decision is the outcome of evaluating the current session state.
type Decision int

const (
	// DecisionWait means the session is still initializing; show the
	// fallback and do not redirect.
	DecisionWait Decision = iota

	// DecisionAllow grants access.
	DecisionAllow

	// DecisionRedirectLogin means there is no session; send the user to the
	// login flow.
	DecisionRedirectLogin

	// DecisionRedirectDenied means the user is signed in but lacks the
	// required role.
	DecisionRedirectDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectDenied:
		return "redirect_denied"
	default:
		return "unknown"
	}
}

var (
	// ErrLoginRequired is returned by Run when no session exists.
	ErrLoginRequired = errors.New("login required")

	// ErrRoleDenied is returned by Run when the user lacks the required role.
	ErrRoleDenied = errors.New("insufficient role")
)

// Session is the slice of the controller the guard reads. *session.Controller
// satisfies it.
type Session interface {
	Snapshot() session.Snapshot
	WaitSettled(ctx context.Context) error
}

// Guard evaluates access against a Session. A Guard with no roles admits any
// authenticated user.
type Guard struct {
	session Session
	roles   map[models.Role]struct{}
	logger  logging.Logger

	onLogin  func()
	onDenied func()

	mu       sync.Mutex
	fired    bool
	firedGen uint64
}

// Option customizes a Guard.
type Option func(*Guard)

// WithRoles restricts access to users holding one of the given roles.
func WithRoles(roles ...models.Role) Option {
	return func(g *Guard) {
		for _, r := range roles {
			g.roles[r] = struct{}{}
		}
	}
}

// WithRedirectLogin sets the side effect fired when access requires login.
func WithRedirectLogin(fn func()) Option {
	return func(g *Guard) { g.onLogin = fn }
}

// WithRedirectDenied sets the side effect fired when the role check fails.
func WithRedirectDenied(fn func()) Option {
	return func(g *Guard) { g.onDenied = fn }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(g *Guard) { g.logger = l.With("module", "guard") }
}

// New returns a Guard over the given session.
func New(s Session, opts ...Option) *Guard {
	g := &Guard{
		session: s,
		roles:   make(map[models.Role]struct{}),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate maps the current session state to a Decision. It is a pure read
// with no side effects; Run is the entry point that fires redirects.
func (g *Guard) Evaluate() (Decision, session.Snapshot) {
	snap := g.session.Snapshot()
	switch snap.State {
	case session.StateInitializing:
		return DecisionWait, snap
	case session.StateUnauthenticated:
		return DecisionRedirectLogin, snap
	default:
		if len(g.roles) == 0 {
			return DecisionAllow, snap
		}
		if snap.User != nil {
			if _, ok := g.roles[snap.User.Role]; ok {
				return DecisionAllow, snap
			}
		}
		return DecisionRedirectDenied, snap
	}
}

// Run waits for the session to settle, then either invokes fn with the
// authenticated user or fires the matching redirect and returns a sentinel
// error. The redirect side effect fires at most once per session transition,
// so repeated Run calls against the same dead session do not stack redirects.
func (g *Guard) Run(ctx context.Context, fn func(ctx context.Context, u *models.User) error) error {
	if err := g.session.WaitSettled(ctx); err != nil {
		return err
	}

	decision, snap := g.Evaluate()
	switch decision {
	case DecisionAllow:
		return fn(ctx, snap.User)
	case DecisionRedirectLogin:
		g.fireOnce(ctx, snap.Gen, g.onLogin)
		return ErrLoginRequired
	case DecisionRedirectDenied:
		g.fireOnce(ctx, snap.Gen, g.onDenied)
		return ErrRoleDenied
	default:
		// WaitSettled returned, so the state cannot still be initializing.
		return ErrLoginRequired
	}
}

func (g *Guard) fireOnce(ctx context.Context, gen uint64, fn func()) {
	g.mu.Lock()
	if g.fired && g.firedGen == gen {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.firedGen = gen
	g.mu.Unlock()

	g.logger.Debug(ctx, "access redirect", "gen", gen)
	if fn != nil {
		fn()
	}
}
