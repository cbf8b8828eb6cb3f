package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/k0kubun/pp"
	"github.com/phsym/console-slog"
	"golang.org/x/term"

	"github.com/ihorzashchelkin/nylawm/internal/build"
	"github.com/ihorzashchelkin/nylawm/internal/compositor"
	"github.com/ihorzashchelkin/nylawm/internal/config"
	"github.com/ihorzashchelkin/nylawm/internal/glx"
	"github.com/ihorzashchelkin/nylawm/internal/process"
	"github.com/ihorzashchelkin/nylawm/internal/tiling"
	"github.com/ihorzashchelkin/nylawm/internal/wm"
	"github.com/ihorzashchelkin/nylawm/internal/x11"
)

const name = "nylawm"

func init() {
	// The GL context is current on the thread that created it.
	runtime.LockOSThread()
}

func main() {
	argv0 := filepath.Base(os.Args[0])
	if handled := handleArgs(argv0, os.Args[1:], os.Stdout); handled {
		os.Exit(0)
	}
	os.Exit(run())
}

// handleArgs deals with the command line. It reports whether the process
// should exit instead of starting the window manager.
func handleArgs(argv0 string, args []string, out io.Writer) bool {
	switch {
	case len(args) == 0:
		return false
	case len(args) == 1 && args[0] == "-v":
		fmt.Fprintln(out, build.VersionString(argv0))
	default:
		printUsage(out, argv0)
	}
	return true
}

func printUsage(w io.Writer, argv0 string) {
	fmt.Fprintf(w, "usage: %s [-v]\n", argv0)
}

func run() int {
	// A missing .env is fine.
	_ = godotenv.Load()

	res, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: failed to load configuration: %v\n", name, err)
		return 1
	}
	cfg := res.Config
	logger := InitLogger(cfg.SlogLevel())
	logger.Info("starting "+name, "build", build.Current)
	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = serve(ctx, cfg, logger)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, x11.ErrAnotherWM):
		logger.Error("cannot manage the display: another window manager is already running")
	case errors.Is(err, wm.ErrConnectionLost):
		logger.Error("connection to the display was lost")
	default:
		logger.Error("fatal", "error", err)
	}
	return 1
}

// InitLogger installs the default logger: colored console output on a
// terminal, logfmt otherwise.
func InitLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = console.NewHandler(os.Stderr, &console.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		pp.ColoringEnabled = false
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	conn, err := x11.ConnectWithFallback(cfg.Display, cfg.FallbackDisplay, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.BecomeWM(); err != nil {
		return err
	}

	mon := conn.PrimaryMonitor()
	screen := tiling.Rect{X: mon.X, Y: mon.Y, Width: mon.Width, Height: mon.Height}
	logger.Info("connected", "display", conn.Display, "monitor", mon.Name, "screen", fmt.Sprintf("%dx%d+%d+%d", mon.Width, mon.Height, mon.X, mon.Y))

	var comp *compositor.Bridge
	if cfg.Compositor {
		renderer, teardown, err := setupCompositor(conn, logger)
		if err != nil {
			return err
		}
		defer teardown()
		comp = compositor.NewBridge(conn, renderer, logger.With("component", "compositor"))
	}

	if err := conn.Announce(name, cfg.Workspaces); err != nil {
		return err
	}
	existing, err := conn.ExistingWindows()
	if err != nil {
		return err
	}

	manager, err := wm.New(conn, comp, wm.Options{
		Config: cfg,
		Screen: screen,
		Spawn: func(argv []string) error {
			_, err := process.Spawn(argv, conn.Display)
			return err
		},
		Logger: logger.With("component", "wm"),
	})
	if err != nil {
		return err
	}
	if err := manager.Start(existing); err != nil {
		return err
	}

	process.StartReaper(ctx, logger.With("component", "process"))
	return manager.Run(ctx, conn.Events(ctx))
}

// setupCompositor redirects every top-level window, opens a GL context and
// points it at a canvas inside the composite overlay. The returned func
// undoes it.
func setupCompositor(conn *x11.Connection, logger *slog.Logger) (*glx.Renderer, func(), error) {
	overlay, err := conn.RedirectSubwindows()
	if err != nil {
		return nil, nil, err
	}

	renderer, err := glx.Open(conn.Display, logger.With("component", "glx"))
	if err != nil {
		conn.ReleaseOverlay()
		return nil, nil, err
	}

	width, height := conn.ScreenSize()
	canvas, err := conn.CreateCanvas(overlay, renderer.VisualID(), width, height)
	if err == nil {
		err = renderer.Attach(canvas, width, height)
	}
	if err != nil {
		renderer.Close()
		conn.ReleaseOverlay()
		return nil, nil, err
	}

	logger.Debug("compositor ready", "overlay", overlay, "canvas", canvas, "visual", renderer.VisualID())
	return renderer, func() {
		renderer.Close()
		conn.ReleaseOverlay()
	}, nil
}
