// Package main is the regvec CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/cli"
	"github.com/hyperjump/regvec/internal/config"
	"github.com/hyperjump/regvec/internal/embedding"
	"github.com/hyperjump/regvec/internal/loader"
	"github.com/hyperjump/regvec/internal/query"
	"github.com/hyperjump/regvec/internal/server"
	"github.com/hyperjump/regvec/internal/vectorstore"
	"github.com/hyperjump/regvec/internal/watcher"
	"github.com/hyperjump/regvec/pkg/utils"
)

var version = "dev"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	if len(args) > 0 {
		switch args[0] {
		case "collections":
			return runCollections(ctx, args[1:], stdout, stderr)
		case "serve":
			return runServe(ctx, args[1:], stdout, stderr)
		case "watch":
			return runWatch(ctx, args[1:], stdout, stderr)
		case "version", "--version":
			fmt.Fprintf(stdout, "regvec version %s\n", version)
			return exitOK
		case "help", "--help", "-h":
			printUsage(stdout)
			return exitOK
		}
	}
	return runRoot(ctx, args, stdout, stderr)
}

// commonFlags are accepted by the root command and every subcommand.
type commonFlags struct {
	configPath string
	debug      bool
	collection string
	output     string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file path (default: ./regvec.yaml, then ~/.config/regvec/config.yaml)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.StringVar(&c.collection, "collection", "", "collection name (default from config, or reg_collection)")
	fs.StringVar(&c.output, "output", "text", "output format: text or json")
}

func runRoot(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("regvec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	var common commonFlags
	common.register(fs)
	loadPath := fs.String("load", "", "load the file at path into the collection")
	queryText := fs.String("query", "", "print the stored chunk closest to the query text")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *loadPath == "" && *queryText == "" {
		printUsage(stderr)
		return exitUsage
	}
	format, err := cli.ParseOutputFormat(common.output)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	app, err := setup(&common)
	if err != nil {
		fmt.Fprintf(stderr, "Initialization failed: %v\n", err)
		return exitError
	}
	defer app.Close()

	opCtx, cancel := app.operationContext(ctx)
	defer cancel()

	// Load wins when both flags are given.
	if *loadPath != "" {
		res, err := app.Loader.Load(opCtx, *loadPath)
		if err != nil {
			fmt.Fprintf(stderr, "Load failed: %v\n", err)
			return exitError
		}
		if err := cli.WriteLoadResult(stdout, res, format); err != nil {
			fmt.Fprintf(stderr, "Output failed: %v\n", err)
			return exitError
		}
		return exitOK
	}

	hit, err := app.Runner.Query(opCtx, *queryText)
	if err != nil {
		fmt.Fprintf(stderr, "Query failed: %v\n", err)
		return exitError
	}
	if err := cli.WriteHit(stdout, hit, format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return exitError
	}
	return exitOK
}

func runCollections(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("collections", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	format, err := cli.ParseOutputFormat(common.output)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	app, err := setup(&common)
	if err != nil {
		fmt.Fprintf(stderr, "Initialization failed: %v\n", err)
		return exitError
	}
	defer app.Close()

	opCtx, cancel := app.operationContext(ctx)
	defer cancel()
	infos, err := vectorstore.Describe(opCtx, app.Store)
	if err != nil {
		fmt.Fprintf(stderr, "Collections failed: %v\n", err)
		return exitError
	}
	if err := cli.WriteCollections(stdout, infos, format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return exitError
	}
	return exitOK
}

func runServe(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	host := fs.String("host", "", "listen host (default from config)")
	port := fs.Int("port", 0, "listen port (default from config)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	app, err := setup(&common)
	if err != nil {
		fmt.Fprintf(stderr, "Initialization failed: %v\n", err)
		return exitError
	}
	defer app.Close()

	if *host != "" {
		app.Config.Server.Host = *host
	}
	if *port != 0 {
		app.Config.Server.Port = *port
	}

	srv := server.NewServer(app.Loader, app.Runner, app.Store, &app.Config.Server, app.Logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(stderr, "Server failed: %v\n", err)
			return exitError
		}
		return exitOK
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		fmt.Fprintf(stderr, "Shutdown failed: %v\n", err)
		return exitError
	}
	return exitOK
}

func runWatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	debounce := fs.Duration("debounce", 0, "quiet period before reloading (default from config)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: regvec watch [flags] <path>")
		return exitUsage
	}
	path := fs.Arg(0)
	format, err := cli.ParseOutputFormat(common.output)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	app, err := setup(&common)
	if err != nil {
		fmt.Fprintf(stderr, "Initialization failed: %v\n", err)
		return exitError
	}
	defer app.Close()

	load := func(ctx context.Context, path string) error {
		opCtx, cancel := app.operationContext(ctx)
		defer cancel()
		res, err := app.Loader.Load(opCtx, path)
		if err != nil {
			return err
		}
		return cli.WriteLoadResult(stdout, res, format)
	}
	if err := load(ctx, path); err != nil {
		fmt.Fprintf(stderr, "Load failed: %v\n", err)
		return exitError
	}

	if *debounce == 0 {
		*debounce = app.Config.Watch.Debounce
	}
	w := watcher.NewWatcher(path, func(ctx context.Context, path string) {
		if err := load(ctx, path); err != nil {
			app.Logger.Warn("watch reload failed", zap.String("path", path), zap.Error(err))
		}
	}, watcher.WithDebounce(*debounce), watcher.WithLogger(app.Logger))
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Watch failed: %v\n", err)
		return exitError
	}
	app.Logger.Info("watching file", zap.String("path", w.Path()), zap.String("collection", app.Loader.Collection()))
	<-w.Done()
	return exitOK
}

// Components holds the initialized dependencies for a command.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    vectorstore.Store
	Embedder embedding.Embedder
	Loader   *loader.Loader
	Runner   *query.Runner
}

// Close releases the embedder and store and flushes the logger.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// operationContext applies the configured per-operation timeout.
func (c *Components) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Config.Timeout > 0 {
		return context.WithTimeout(ctx, c.Config.Timeout)
	}
	return context.WithCancel(ctx)
}

// loadConfig resolves the config file, applies environment overrides and flag overrides,
// and validates the result.
func loadConfig(common *commonFlags) (*config.Config, string, error) {
	var (
		cfg      *config.Config
		resolved string
		err      error
	)
	if common.configPath != "" {
		cfg, err = config.Load(common.configPath)
		resolved = common.configPath
	} else {
		cfg, resolved, err = config.LoadDefault()
	}
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, "", err
	}
	if common.collection != "" {
		cfg.Collection = common.collection
	}
	if common.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

func setup(common *commonFlags) (*Components, error) {
	cfg, resolved, err := loadConfig(common)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("collection", cfg.Collection),
	)
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return components, nil
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := vectorstore.NewStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return &Components{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Embedder: embedder,
		Loader:   loader.New(store, embedder, cfg.Collection, loader.WithLogger(logger)),
		Runner:   query.New(store, embedder, cfg.Collection, query.WithLogger(logger)),
	}, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `regvec - load a text file into a vector collection and query it

Usage:
  regvec --load <path> [flags]     Replace the collection with the file's chunks
  regvec --query <text> [flags]    Print the stored chunk closest to text
  regvec collections [flags]       List collections with point counts
  regvec serve [flags]             Start the HTTP API
  regvec watch [flags] <path>      Load a file and reload it whenever it changes
  regvec version                   Show version
  regvec help                      Show this help

Flags:
  --config string       Config file path (default: ./regvec.yaml, then ~/.config/regvec/config.yaml)
  --collection string   Collection name (default: reg_collection)
  --output string       Output format: text or json (default: text)
  --debug               Enable debug logging

Serve Flags:
  --host string         Listen host (default: localhost)
  --port int            Listen port (default: 8080)

Watch Flags:
  --debounce duration   Quiet period before reloading (default: 400ms)

Chunks are separated by a blank line. If both --load and --query are given, only the load runs.

Environment:
  QDRANT_HOST, QDRANT_PORT, QDRANT_API_KEY override the qdrant section of the config.
  A .env file in the working directory is read first.

Examples:
  regvec --load regulations.txt
  regvec --query "what is the retention period?"
  regvec --load notes.md --collection notes
  regvec --query "deadline" --output json
`)
}
