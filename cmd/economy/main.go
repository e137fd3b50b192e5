// cmd/economy/main.go
//
// Entry point for the economy. Run it from a project directory:
//
//	economy                 console for the configured user (bridge too, if enabled)
//	economy --serve         HTTP bridge only, until SIGINT/SIGTERM
//	economy --dump          print the ledger and exit
//
// Whatever the mode, the ledger is saved on the way out.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/pflag"

	"github.com/kingrea/economy/internal/bridge"
	"github.com/kingrea/economy/internal/config"
	"github.com/kingrea/economy/internal/economy"
	"github.com/kingrea/economy/internal/ledger"
	"github.com/kingrea/economy/internal/logbook"
	"github.com/kingrea/economy/internal/logging"
	"github.com/kingrea/economy/internal/tui"
	"github.com/kingrea/economy/internal/usehandler"
	"github.com/kingrea/economy/plugins"
)

var (
	projectDir string
	isServe    bool
	isDump     bool
	isHelp     bool
	consoleAs  string
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	pflag.StringVarP(&projectDir, "project", "p", cwd, "project directory holding .economy/.")
	pflag.BoolVarP(&isServe, "serve", "s", false, "run the HTTP bridge without the console.")
	pflag.StringVarP(&consoleAs, "user", "u", "", "console identity (defaults to console.user in config.yaml).")
	pflag.BoolVarP(&isDump, "dump", "", false, "print the ledger and exit.")
	pflag.BoolVarP(&isHelp, "help", "h", false, "help info.")
	pflag.Parse()
	if isHelp {
		pflag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	if err := config.InitEconomyDir(root); err != nil {
		return fmt.Errorf("initialize .economy directory: %w", err)
	}
	cfg, err := config.NewConfig(root)
	if err != nil {
		return err
	}

	logger, err := newLogger(root, isServe)
	if err != nil {
		return err
	}
	defer logger.Close()

	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	handlers := usehandler.NewRegistry()
	items, err := plugins.RegisterHandlerPlugins(handlers, cfg.HandlersDir(), plugins.WithCatalog(cat))
	if err != nil {
		return err
	}
	logger.Printf("economy: %d catalogued items, use-handlers for %s", cat.Len(), strings.Join(items, ", "))

	store := ledger.NewStore(cfg.LedgerOptions(), ledger.WithLogger(logger))
	econ, err := economy.New(store, cat, handlers,
		economy.WithAdmin(cfg.AdminID()),
		economy.WithLogger(logger),
		economy.WithJournal(journal),
	)
	if err != nil {
		return err
	}
	loadErr := econ.LoadOnStartup()

	if isDump {
		if loadErr != nil {
			return loadErr
		}
		_, err := pp.Println(store.Snapshot())
		return err
	}
	if loadErr != nil {
		fmt.Fprintf(os.Stderr, "Ledger not loaded (%v); commands stay disabled until an admin runs loaddata.\n", loadErr)
	}
	defer saveOnExit(store, logger, journal)

	dispatcher := economy.NewDispatcher(econ, cfg.Prefix())
	settings := bridge.SettingsFromConfig(cfg)
	if isServe {
		settings.Enabled = true
		return serve(settings, dispatcher, store, logger)
	}

	var srv *bridge.Server
	if settings.Enabled {
		srv = newBridge(settings, dispatcher, store, logger)
		if err := srv.Start(context.Background()); err != nil {
			logger.Printf("economy: bridge not started: %v", err)
			srv = nil
		}
	}
	defer shutdownBridge(srv)

	user := consoleAs
	if strings.TrimSpace(user) == "" {
		user = cfg.ConsoleUser()
	}
	status := fmt.Sprintf("Signed in as %s · enter sends · esc quits", user)
	if srv != nil {
		status += " · bridge " + srv.BaseURL()
	}
	app, err := tui.NewApp(dispatcher, user, tui.WithJournal(journal), tui.WithStatus(status))
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}

// newLogger writes to .economy/logs/economy.log, or to stderr when the
// bridge runs headless under a supervisor.
func newLogger(root string, headless bool) (*logging.Logger, error) {
	if headless {
		return logging.NewWriter(os.Stderr), nil
	}
	return logging.New(root)
}

func newBridge(settings bridge.Settings, d bridge.Dispatcher, store *ledger.Store, logger *logging.Logger) *bridge.Server {
	return bridge.NewServer(settings,
		bridge.WithDispatcher(d),
		bridge.WithReadiness(store.Ready),
		bridge.WithLogger(logger),
	)
}

func serve(settings bridge.Settings, d bridge.Dispatcher, store *ledger.Store, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := newBridge(settings, d, store, logger)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("Bridge listening on %s\n", srv.BaseURL())
	<-ctx.Done()
	shutdownBridge(srv)
	return nil
}

func shutdownBridge(srv *bridge.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// saveOnExit persists the ledger unless it never loaded; saving an unloaded
// store would overwrite the document with an empty ledger.
func saveOnExit(store *ledger.Store, logger *logging.Logger, journal *logbook.Logbook) {
	if !store.Ready() {
		logger.Printf("economy: ledger not ready at exit, skipping save")
		return
	}
	if err := store.Save(""); err != nil {
		var perr *ledger.PersistenceError
		if errors.As(err, &perr) {
			journal.Error("save on exit failed: %v", perr)
		}
		logger.Printf("economy: save on exit failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error saving ledger: %v\n", err)
		return
	}
	journal.Info("save on exit accounts=%d", len(store.Users()))
}
