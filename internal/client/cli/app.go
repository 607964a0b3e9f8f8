package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/rampforge/rampforge/internal/client/api"
	"github.com/rampforge/rampforge/internal/client/config"
	"github.com/rampforge/rampforge/internal/client/guard"
	"github.com/rampforge/rampforge/internal/client/session"
	"github.com/rampforge/rampforge/internal/client/tokenstore"
	"github.com/rampforge/rampforge/internal/logging"
)

// App wires the CLI together: token store, API client, session controller
// and access guard. Command handlers live in the other files of this package.
type App struct {
	config     *config.Config
	store      *tokenstore.Store
	client     *api.Client
	controller *session.Controller
	guard      *guard.Guard
	logger     logging.Logger
	reader     *bufio.Reader
	closeDB    func() error
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(c.StateDBPath), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := tokenstore.Open(ctx, c.StateDBPath)
	if err != nil {
		return nil, err
	}
	store := tokenstore.New(db, c.TokenMirrorPath)

	broadcaster := session.NewExpiryBroadcaster()

	apiClient := api.New(c.ServerURL, store,
		api.WithTimeout(c.RequestTimeout),
		api.WithExpiryNotifier(broadcaster),
		api.WithLogger(logger),
	)

	controller := session.New(store, apiClient, broadcaster,
		session.WithVerifyInterval(c.VerifyInterval),
		session.WithCallTimeout(c.RequestTimeout),
		session.WithLogger(logger),
	)

	g := guard.New(controller,
		guard.WithRedirectLogin(func() {
			printlnFn("No active session. Please run 'login'.")
		}),
		guard.WithLogger(logger),
	)

	return &App{
		config:     c,
		store:      store,
		client:     apiClient,
		controller: controller,
		guard:      g,
		logger:     logger,
		reader:     bufio.NewReader(os.Stdin),
		closeDB:    db.Close,
	}, nil
}

// Run starts the session controller and enters the REPL. It returns when the
// user exits or stdin is closed.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.controller.Start(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// Close releases the controller and the state database.
func (a *App) Close() {
	a.controller.Close()
	if a.closeDB != nil {
		_ = a.closeDB()
	}
}

func (a *App) isLoggedIn() bool {
	return a.controller.Snapshot().State == session.StateAuthenticated
}

// getStatus renders the prompt suffix: the signed-in email, with a '?' while
// a warm-started session has not been verified yet.
func (a *App) getStatus() string {
	snap := a.controller.Snapshot()
	if snap.State != session.StateAuthenticated || snap.User == nil {
		return ""
	}
	s := snap.User.Email
	if !snap.Verified {
		s += "?"
	}
	return fmt.Sprintf("(%s)", s)
}
