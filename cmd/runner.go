package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/repositories"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, the persisted session and the synchronizer are created on first use so
// that catalog-only commands never touch the disk.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	backend    *services.BackendService
	api        *services.APIService
	logger     *log.Logger
	output     io.Writer

	db       *sql.DB
	activity *repositories.ActivityRepository
	store    *repositories.SessionStoreAdapter
	session  *tasks.Session
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Backend    *services.BackendService
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		backend:    opts.Backend,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
	if opts.Backend != nil {
		r.api = services.NewAPIService(opts.Backend.BaseURL(), opts.Backend.HTTPClient())
	}
	return r
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, browseCommand, searchCommand, listsCommand, mirrorCommand, historyCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) requireCatalog() error {
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog.api_key is not set (or set %s)", shared.ErrMissingCredentials, shared.EnvTMDBAPIKey)
	}
	return nil
}

func (r *Runner) requireBackend() error {
	if r.backend == nil {
		return fmt.Errorf("%w: backend.base_url is not set (or set %s)", shared.ErrMissingConfig, shared.EnvBackendURL)
	}
	return nil
}

// database opens the configured database and its repositories once.
func (r *Runner) database() (*sql.DB, error) {
	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
	}
	if r.activity == nil {
		r.activity = repositories.NewActivityRepository(r.db)
	}
	if r.store == nil && r.backend != nil {
		r.store = repositories.NewSessionStoreAdapter(repositories.NewSessionRepository(r.db), r.backend)
	}
	return r.db, nil
}

// currentSession restores the stored cookies and asks the backend who they belong to.
//
// Without a database the session still works but is forgotten when the command exits.
func (r *Runner) currentSession(ctx context.Context) (*tasks.Session, error) {
	if err := r.requireBackend(); err != nil {
		return nil, err
	}
	if r.session != nil {
		return r.session, nil
	}

	opts := []tasks.SessionOption{tasks.WithSessionLogger(shared.WithLogger(r.logger, "component", "session"))}
	if _, err := r.database(); err != nil {
		r.logger.Warn("session will not be persisted", "error", err)
	} else {
		if username, err := r.store.Restore(); err != nil {
			r.logger.Warn("failed to restore session", "error", err)
		} else if username != "" {
			r.logger.Debug("restored session", "user", username)
		}
		opts = append(opts, tasks.WithSessionStore(r.store))
	}

	r.session = tasks.NewSession(r.backend, opts...)
	if err := r.session.Init(ctx); err != nil {
		r.logger.Warn("could not verify session", "error", err)
	}
	return r.session, nil
}

// synchronizer wires list mutations to the activity log. A sign in redirect is stored
// as the return path so that the next login can point back at it.
func (r *Runner) synchronizer(session *tasks.Session) *tasks.Synchronizer {
	nav := tasks.NavigatorFunc(func(to, from string) {
		r.logger.Debug("sign in required", "to", to, "from", from)
		if r.store == nil {
			return
		}
		if err := r.store.SetReturnPath(from); err != nil {
			r.logger.Warn("failed to store return path", "error", err)
		}
	})

	opts := []tasks.SyncOption{
		tasks.WithNavigator(nav),
		tasks.WithSyncLogger(shared.WithLogger(r.logger, "component", "sync")),
	}
	if r.catalog != nil {
		opts = append(opts, tasks.WithImageResolver(r.catalog.ImageURL))
	}
	if r.activity != nil {
		opts = append(opts, tasks.WithRecorder(r.activity))
	}
	return tasks.NewSynchronizer(r.backend, session, opts...)
}

// mutationError converts a failed or redirected mutation into a command error.
func mutationError(res tasks.MutationResult) error {
	switch {
	case res.Redirected:
		return fmt.Errorf("%w: run 'mtx auth login' first", shared.ErrNotAuthenticated)
	case res.Err != nil:
		return fmt.Errorf("could not %s %s: %w", res.Op, res.Title, res.Err)
	default:
		return nil
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
