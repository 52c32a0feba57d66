package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/assets"
	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/cue"
	"github.com/lox/blackjack/internal/gui"
	"github.com/lox/blackjack/internal/serverlink"
	"github.com/lox/blackjack/internal/session"
	"github.com/lox/blackjack/internal/tui"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"
)

// linkCheckPeriod is how often the session looks for a dropped connection
const linkCheckPeriod = time.Second

var CLI struct {
	Config   string `short:"c" long:"config" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" long:"server" help:"Server URL to connect to (overrides config)"`
	Table    string `short:"t" long:"table" help:"Table to join (overrides config)"`
	Player   string `short:"p" long:"player" help:"Player id (overrides config)"`
	Assets   string `long:"assets" help:"Local directory holding static/cards and static/sounds (overrides config)"`
	Frontend string `short:"f" long:"frontend" help:"Surface to draw on: terminal or window (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	LogFile  string `long:"log-file" help:"Log file path (overrides config)"`
	NoColor  bool   `long:"no-color" help:"Disable terminal colours"`
	Bell     bool   `long:"bell" help:"Ring the terminal bell on wins"`

	WriteConfig bool `long:"write-config" help:"Write the effective configuration to the config path and exit"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("blackjack"),
		kong.Description("Multiplayer blackjack table client"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}
	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	if CLI.WriteConfig {
		if err := cfg.Save(CLI.Config); err != nil {
			fmt.Printf("Failed to write config: %v\n", err)
			kctx.Exit(1)
		}
		fmt.Printf("Wrote %s\n", CLI.Config)
		kctx.Exit(0)
	}

	// The terminal belongs to the UI, so logs go to a file
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		kctx.Exit(1)
	}
	defer func() { _ = logFile.Close() }()

	logger := log.NewWithOptions(logFile, log.Options{
		Level:           cfg.LogLevel(),
		ReportTimestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Client failed", "error", err)
		kctx.FatalIfErrorf(err)
	}
}

func applyOverrides(cfg *config.Config) {
	if CLI.Server != "" {
		cfg.Server.URL = CLI.Server
	}
	if CLI.Table != "" {
		cfg.Server.Table = CLI.Table
	}
	if CLI.Player != "" {
		cfg.Player.Name = CLI.Player
	}
	if CLI.Assets != "" {
		cfg.Assets.Dir = CLI.Assets
		cfg.Assets.BaseURL = ""
	}
	if CLI.Frontend != "" {
		cfg.UI.Frontend = CLI.Frontend
	}
	if CLI.LogLevel != "" {
		cfg.UI.LogLevel = CLI.LogLevel
	}
	if CLI.LogFile != "" {
		cfg.UI.LogFile = CLI.LogFile
	}
	if CLI.NoColor {
		cfg.UI.NoColor = true
	}
	if CLI.Bell {
		cfg.UI.Bell = true
	}
}

func newLoader(cfg *config.Config) (assets.Loader, error) {
	if cfg.Assets.Dir != "" {
		return assets.NewDirLoader(cfg.Assets.Dir), nil
	}
	return assets.NewHTTPLoader(cfg.AssetBase(), &http.Client{Timeout: cfg.ConnectTimeout()})
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	player := cfg.PlayerName()

	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}
	store := assets.NewStore(loader, logger, assets.Options{
		MaxRetries:  cfg.Assets.MaxRetries,
		Backoff:     cfg.Backoff(),
		Concurrency: cfg.Assets.Concurrency,
	})

	link := serverlink.New(cfg.Server.URL, logger, serverlink.Options{
		ReconnectAttempts: cfg.Server.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay(),
		Dialer:            &websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout()},
	})

	dialCtx, cancelDial := context.WithTimeout(ctx, cfg.ConnectTimeout())
	err = link.Connect(dialCtx)
	cancelDial()
	if err != nil {
		return err
	}
	defer func() { _ = link.Close() }()

	sessionCfg := session.Config{
		Table:      cfg.Server.Table,
		Player:     player,
		ResetDelay: cfg.RoundReset(),
	}
	if cfg.Server.ReconnectAttempts > 0 {
		sessionCfg.LinkCheck = linkCheckPeriod
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	switch cfg.UI.Frontend {
	case config.FrontendWindow:
		var cues cue.Player = gui.NewAudioPlayer(store, logger)
		surface := gui.NewSurface()
		sess := session.New(sessionCfg, link, store, surface, cues, logger)

		game, err := gui.NewGame(sess, surface, store, cfg.ActionKeys(), logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return sess.Run(gctx) })

		// ebiten must own the main goroutine
		err = gui.Run(gctx, game, "Blackjack - "+player)
		cancel()
		return firstErr(err, g.Wait())

	default:
		var cues cue.Player = cue.NewLogPlayer(logger)
		if cfg.UI.Bell {
			cues = cue.NewBellPlayer(os.Stdout, cues)
		}
		surface := tui.NewSurface()
		sess := session.New(sessionCfg, link, store, surface, cues, logger)

		profile := termenv.EnvColorProfile()
		if cfg.UI.NoColor {
			profile = termenv.Ascii
		}
		model := tui.NewModel(sess, surface, cfg.ActionKeys(), profile, logger)

		g.Go(func() error { return sess.Run(gctx) })

		err := tui.Run(gctx, model)
		cancel()
		return firstErr(err, g.Wait())
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
