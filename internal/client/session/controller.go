// Package session owns the client-side authentication state machine.
//
// The Controller is the single authority for "is the current user
// authenticated". It is the only component allowed to call the auth
// endpoints or to mutate the token store as a result of authentication
// events; everything else (the access guard, the CLI) reads its state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rampforge/rampforge/internal/client/api"
	"github.com/rampforge/rampforge/internal/client/models"
	"github.com/rampforge/rampforge/internal/client/tokenstore"
	"github.com/rampforge/rampforge/internal/logging"
)

const (
	defaultVerifyInterval = 10 * time.Minute
	defaultCallTimeout    = 12 * time.Second
)

// AuthAPI is the remote auth endpoint the controller validates against.
// *api.Client satisfies it. Implementations must map failures into the
// sentinel errors of the api package.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	VerifyToken(ctx context.Context) (bool, error)
}

// Controller is the session state machine.
type Controller struct {
	store  *tokenstore.Store
	api    AuthAPI
	logger logging.Logger

	verifyEvery time.Duration
	callTimeout time.Duration

	mu          sync.Mutex
	state       State
	user        *models.User
	verified    bool
	gen         uint64
	subs        map[int]func(Snapshot)
	nextSub     int
	watchCancel context.CancelFunc
	watchStarts int
	closed      bool

	startOnce  sync.Once
	settleOnce sync.Once
	settled    chan struct{}

	unsubExpiry func()
}

// Option customizes a Controller.
type Option func(*Controller)

// WithVerifyInterval overrides the periodic re-validation interval.
// A non-positive interval disables the background watcher.
func WithVerifyInterval(d time.Duration) Option {
	return func(c *Controller) { c.verifyEvery = d }
}

// WithCallTimeout bounds each background call to the auth endpoint.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) { c.callTimeout = d }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l.With("module", "session") }
}

// New constructs a Controller in StateInitializing. When expiry is non-nil
// the controller subscribes to it immediately and stays subscribed until
// Close.
func New(store *tokenstore.Store, authAPI AuthAPI, expiry *ExpiryBroadcaster, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		api:         authAPI,
		logger:      logging.Nop(),
		verifyEvery: defaultVerifyInterval,
		callTimeout: defaultCallTimeout,
		state:       StateInitializing,
		subs:        make(map[int]func(Snapshot)),
		settled:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if expiry != nil {
		c.unsubExpiry = expiry.Subscribe(c.expire)
	}
	return c
}

// Start runs the startup validation sequence. It executes exactly once per
// controller; repeated calls are no-ops. With a stored token and a cached
// user snapshot the controller is Authenticated before Start returns (warm
// start), with verification continuing in the background.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() { c.initialize(ctx) })
}

func (c *Controller) initialize(ctx context.Context) {
	token, err := c.store.Token(ctx)
	if err != nil {
		c.logger.Warn(ctx, "token store read failed", "error", err)
	}
	if token == "" {
		c.mu.Lock()
		snap, subs := c.transitionLocked(StateUnauthenticated, nil, false)
		c.mu.Unlock()
		notify(snap, subs)
		return
	}

	cached, err := c.store.User(ctx)
	if err != nil {
		c.logger.Warn(ctx, "cached user read failed", "error", err)
	}
	if cached != nil {
		// Warm start: trust the snapshot now, verify in the background. The
		// optimistic state lives at most one verification round trip.
		c.mu.Lock()
		snap, subs := c.transitionLocked(StateAuthenticated, cached, false)
		gen := c.gen
		c.mu.Unlock()
		notify(snap, subs)
		go c.verifyPass(gen)
		return
	}

	// Token without a snapshot: fetch the profile while staying in
	// StateInitializing so the guard keeps its fallback up.
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	go c.fetchUserPass(gen)
}

// Login authenticates with the given credentials. On success the token and
// user are persisted and the state becomes Authenticated. On failure the
// error is returned and neither state nor store is touched.
func (c *Controller) Login(ctx context.Context, email, password string) (*models.User, error) {
	token, user, err := c.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if err := c.store.SetToken(ctx, token); err != nil {
		c.logger.Error(ctx, "persist token failed", "error", err)
	}
	if err := c.store.SetUser(ctx, user); err != nil {
		c.logger.Error(ctx, "persist user snapshot failed", "error", err)
	}
	snap, subs := c.transitionLocked(StateAuthenticated, user.Clone(), true)
	c.mu.Unlock()
	notify(snap, subs)
	return user, nil
}

// Logout revokes the remote session best-effort, then unconditionally clears
// the token store and moves to Unauthenticated.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.api.Logout(ctx); err != nil {
		c.logger.Warn(ctx, "remote logout failed; clearing local session anyway", "error", err)
	}

	c.mu.Lock()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error(ctx, "token store clear failed", "error", err)
	}
	snap, subs := c.transitionLocked(StateUnauthenticated, nil, false)
	c.mu.Unlock()
	notify(snap, subs)
}

// Close tears down the background watcher and the expiry subscription.
// The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.watchCancel != nil {
		c.watchCancel()
		c.watchCancel = nil
	}
	unsub := c.unsubExpiry
	c.unsubExpiry = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Snapshot returns a read-only copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// OnChange registers fn to be called after every state transition. The
// returned cancel function detaches it.
func (c *Controller) OnChange(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// WaitSettled blocks until the state has left StateInitializing or ctx is
// done.
func (c *Controller) WaitSettled(ctx context.Context) error {
	select {
	case <-c.settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// expire handles the process-wide "auth expired" broadcast. The broadcaster
// is trusted to have invalidated the store if appropriate, so the controller
// only drops its in-memory state.
func (c *Controller) expire() {
	c.mu.Lock()
	if c.closed || c.state != StateAuthenticated {
		c.mu.Unlock()
		return
	}
	snap, subs := c.transitionLocked(StateUnauthenticated, nil, false)
	c.mu.Unlock()
	notify(snap, subs)
}

// verifyPass runs one VerifyToken round trip for the generation gen. The
// result is discarded if the state moved on in the meantime, so a late
// response can never resurrect a session that was logged out.
func (c *Controller) verifyPass(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()

	ok, err := c.api.VerifyToken(ctx)

	c.mu.Lock()
	if c.closed || c.gen != gen || c.state != StateAuthenticated {
		c.mu.Unlock()
		return
	}
	if err != nil {
		// Transient failure: keep the session, keep the credentials.
		c.mu.Unlock()
		c.logger.Warn(ctx, "token verification unreachable; keeping session", "error", err)
		return
	}
	if !ok {
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.logger.Error(ctx, "token store clear failed", "error", cerr)
		}
		snap, subs := c.transitionLocked(StateUnauthenticated, nil, false)
		c.mu.Unlock()
		c.logger.Info(ctx, "token rejected; session ended")
		notify(snap, subs)
		return
	}
	c.verified = true
	snap := c.snapshotLocked()
	subs := c.subsLocked()
	c.mu.Unlock()
	notify(snap, subs)
}

// fetchUserPass resolves the cold-start case: a stored token without a user
// snapshot. Only an explicit authorization failure clears the store; a
// transient failure still ends initialization in Unauthenticated but leaves
// the credentials for the next start.
func (c *Controller) fetchUserPass(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()

	user, err := c.api.CurrentUser(ctx)

	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		return
	}
	if err == nil {
		if serr := c.store.SetUser(ctx, user); serr != nil {
			c.logger.Error(ctx, "persist user snapshot failed", "error", serr)
		}
		snap, subs := c.transitionLocked(StateAuthenticated, user.Clone(), true)
		c.mu.Unlock()
		notify(snap, subs)
		return
	}
	if errors.Is(err, api.ErrUnauthorized) {
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.logger.Error(ctx, "token store clear failed", "error", cerr)
		}
	}
	snap, subs := c.transitionLocked(StateUnauthenticated, nil, false)
	c.mu.Unlock()
	if !errors.Is(err, api.ErrUnauthorized) {
		c.logger.Warn(ctx, "profile fetch failed; credentials kept", "error", err)
	}
	notify(snap, subs)
}

// watch is the periodic re-validation loop. It only runs while the state is
// Authenticated; transitionLocked starts and cancels it.
func (c *Controller) watch(ctx context.Context) {
	ticker := time.NewTicker(c.verifyEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.closed || c.state != StateAuthenticated {
				c.mu.Unlock()
				return
			}
			gen := c.gen
			c.mu.Unlock()
			c.verifyPass(gen)
		}
	}
}

// transitionLocked applies a state change, bumps the generation, manages the
// watcher lifecycle and the settled latch, and returns what the caller needs
// to notify observers after unlocking.
func (c *Controller) transitionLocked(st State, u *models.User, verified bool) (Snapshot, []func(Snapshot)) {
	c.state = st
	c.user = u
	c.verified = verified
	c.gen++

	if st != StateInitializing {
		c.settleOnce.Do(func() { close(c.settled) })
	}

	if st == StateAuthenticated {
		if c.watchCancel == nil && c.verifyEvery > 0 && !c.closed {
			wctx, cancel := context.WithCancel(context.Background())
			c.watchCancel = cancel
			c.watchStarts++
			go c.watch(wctx)
		}
	} else if c.watchCancel != nil {
		c.watchCancel()
		c.watchCancel = nil
	}

	return c.snapshotLocked(), c.subsLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:    c.state,
		User:     c.user.Clone(),
		Verified: c.verified,
		Gen:      c.gen,
	}
}

func (c *Controller) subsLocked() []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}
