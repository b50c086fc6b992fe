package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/docctx/internal"
	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/discovery"
	"github.com/starford/docctx/internal/mcpserver"
	"github.com/starford/docctx/internal/service"
	"github.com/starford/docctx/internal/watch"
	pkgconfig "github.com/starford/docctx/pkg/config"
)

// exitNoRoot is returned when no documentation root is found. Status uses
// 1 for stale and 2 for orphaned documents.
const exitNoRoot = 3

// exitError ends the process with code. A nil err exits without a message.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	if code == 0 && err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// env bundles what every command needs.
type env struct {
	cfg    *internal.Config
	logger *slog.Logger
	out    *printer
}

func setup(cmd *cli.Command) (*env, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// stdout carries results and the MCP protocol, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	out, err := newPrinter(os.Stdout, cmd.String("output"))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, out: out}, nil
}

// root discovers the documentation root from --dir.
func (e *env) root(cmd *cli.Command) (string, error) {
	root, err := discovery.FindRootWithMarker(cmd.String("dir"), e.cfg.Context.Marker)
	if err != nil {
		return "", exitWith(exitNoRoot, err)
	}
	e.logger.Debug("documentation root found", slog.String("root", root))
	return root, nil
}

// service discovers the root and opens the service over it.
func (e *env) service(cmd *cli.Command) (*service.Service, func() error, error) {
	root, err := e.root(cmd)
	if err != nil {
		return nil, nil, err
	}
	return internal.OpenService(e.cfg, root, e.logger)
}

// action wraps a command body with setup and service lifetime handling.
func action(fn func(ctx context.Context, cmd *cli.Command, e *env, svc *service.Service) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		svc, closeFn, err := e.service(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeFn(); err != nil {
				e.logger.Warn("close index failed", slog.String("error", err.Error()))
			}
		}()
		return fn(ctx, cmd, e, svc)
	}
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	dir := "."
	if cmd.Args().Present() {
		dir = cmd.Args().First()
	}
	if cmd.Bool("parents") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	} else if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("directory %s does not exist (use --parents to create it)", dir)
	}
	root, err := cache.Init(dir, e.cfg.Context.Marker)
	if err != nil {
		return err
	}
	return e.out.message("Initialized context cache at " + root)
}

func runStatus(ctx context.Context, cmd *cli.Command, e *env, svc *service.Service) error {
	res, err := svc.Status(ctx, cmd.Bool("invalid-only"))
	if err != nil {
		return err
	}
	if err := e.out.status(res, cmd.Bool("detailed")); err != nil {
		return err
	}
	return exitWith(res.ExitCode, nil)
}

func runSync(ctx context.Context, cmd *cli.Command, e *env, svc *service.Service) error {
	rep, err := svc.Sync(ctx, service.SyncRequest{
		Path:     cmd.Args().First(),
		Discover: cmd.Bool("discover"),
		Force:    cmd.Bool("force"),
		Prune:    cmd.Bool("prune"),
	})
	if err != nil {
		return err
	}
	if err := e.out.sync(rep); err != nil {
		return err
	}
	if len(rep.Failed) > 0 {
		return exitWith(1, nil)
	}
	return nil
}

func runFind(ctx context.Context, cmd *cli.Command, e *env, svc *service.Service) error {
	res, err := svc.Find(ctx, service.FindRequest{Paths: cmd.Args().Slice()})
	if err != nil {
		return err
	}
	if err := e.out.find(res); err != nil {
		return err
	}
	for _, r := range res {
		if len(r.Documents) > 0 {
			return nil
		}
	}
	return exitWith(1, nil)
}

func runSearch(ctx context.Context, cmd *cli.Command, e *env, svc *service.Service) error {
	res, err := svc.Search(ctx, service.SearchRequest{
		Query:         cmd.Args().First(),
		Limit:         int(cmd.Int("limit")),
		CaseSensitive: cmd.Bool("case-sensitive"),
	})
	if err != nil {
		return err
	}
	if err := e.out.search(res); err != nil {
		return err
	}
	if len(res) == 0 {
		return exitWith(1, nil)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command, e *env, svc *service.Service) error {
	e.logger.Info("MCP server starting on stdio", slog.String("root", svc.Root()))
	return mcpserver.New(svc).ServeStdio()
}

func runWatch(ctx context.Context, cmd *cli.Command, e *env, svc *service.Service) error {
	ctx, stop := signalContext(ctx)
	defer stop()
	err := watch.Follow(ctx, watch.NewTracker(svc), e.logger, e.cfg.Context.Debounce, func(ts []watch.Transition) {
		if err := e.out.transitions(ts); err != nil {
			e.logger.Error("write transitions failed", slog.String("error", err.Error()))
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// signalContext cancels ctx on SIGINT or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func runHTTP(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	if port := cmd.Int("port"); port != 0 {
		e.cfg.App.HTTP.Port = int(port)
		if err := e.cfg.Validate(); err != nil {
			return err
		}
	}
	root, err := e.root(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx,
		internal.WithConfig(e.cfg),
		internal.WithRoot(root),
		internal.WithLogger(e.logger),
	); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "docctx",
		Usage: "Documentation cache that tracks which docs still match the code they describe",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "docctx.yaml",
				Value:       "docctx.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: text or json",
				Value:   formatText,
				Sources: cli.EnvVars("DOCCTX_OUTPUT"),
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"C"},
				Usage:   "Directory to start root discovery from",
				Value:   ".",
				Sources: cli.EnvVars("DOCCTX_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Initialize a new context cache directory",
				ArgsUsage: "[PATH]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "parents", Aliases: []string{"p"}, Usage: "Create PATH if it does not exist"},
				},
				Action: runInit,
			},
			{
				Name:  "status",
				Usage: "Show document status (exit 2 if any orphaned, 1 if any stale)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "invalid-only", Aliases: []string{"i"}, Usage: "Show invalid documents only"},
					&cli.BoolFlag{Name: "detailed", Aliases: []string{"d"}, Usage: "Show changed and missing references"},
				},
				Action: action(runStatus),
			},
			{
				Name:      "sync",
				Usage:     "Refresh stored fingerprints",
				ArgsUsage: "[PATH]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "discover", Usage: "Add files mentioned in inline code as references"},
					&cli.BoolFlag{Name: "prune", Aliases: []string{"p"}, Usage: "Remove unreferenced entries from the fingerprint index"},
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Re-hash every file, bypassing the fingerprint index"},
				},
				Action: action(runSync),
			},
			{
				Name:      "find",
				Usage:     "Find documents that reference given source files",
				ArgsUsage: "PATH...",
				Action:    action(runFind),
			},
			{
				Name:      "search",
				Usage:     "Search document bodies for a literal term",
				ArgsUsage: "TERM",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of matches (0 for all)"},
					&cli.BoolFlag{Name: "case-sensitive", Aliases: []string{"s"}, Usage: "Match case exactly"},
				},
				Action: action(runSearch),
			},
			{
				Name:   "serve",
				Usage:  "Start the MCP server on stdio",
				Action: action(runServe),
			},
			{
				Name:  "http",
				Usage: "Start the HTTP API with live status events",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Usage: "Override app.http.port", Sources: cli.EnvVars("DOCCTX_HTTP_PORT")},
				},
				Action: runHTTP,
			},
			{
				Name:   "watch",
				Usage:  "Print status transitions as files change",
				Action: action(runWatch),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
			if ee.err == nil {
				os.Exit(code)
			}
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(code)
	}
}
