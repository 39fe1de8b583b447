// Package main provides the CLI entry point for mediactl.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/user/mediactl/pkg/adapters/fsnotifystore"
	"github.com/user/mediactl/pkg/adapters/ggrenderer"
	"github.com/user/mediactl/pkg/adapters/ggsurface"
	"github.com/user/mediactl/pkg/adapters/jsonchannel"
	"github.com/user/mediactl/pkg/adapters/logger"
	"github.com/user/mediactl/pkg/adapters/mp4engine"
	"github.com/user/mediactl/pkg/adapters/osfilesystem"
	"github.com/user/mediactl/pkg/config"
	"github.com/user/mediactl/pkg/contentchange"
	"github.com/user/mediactl/pkg/player"
	"github.com/user/mediactl/pkg/ports"
)

var version = "dev"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "mediactl",
		Usage:   l10n.T("Control media players over a JSON-lines channel"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    l10n.T("Path to a YAML configuration file"),
				Category: l10n.T("Configuration"),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"Q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:        "serve",
				Usage:       l10n.T("Serve one player instance on stdin and stdout"),
				Description: l10n.T("Read commands from stdin and write replies and events to stdout, one JSON object per line. Logs go to stderr."),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "id",
						Value: 1,
						Usage: l10n.T("Player instance id"),
					},
					&cli.StringSliceFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   l10n.T("Media library directory to report changes for (repeatable)"),
					},
				},
				Action: serveAction,
			},
			{
				Name:      "probe",
				Usage:     l10n.T("Print the duration and track catalog of a media file"),
				ArgsUsage: "URI",
				Action:    probeAction,
			},
			{
				Name:      "capture",
				Usage:     l10n.T("Save the frame at a position as an image"),
				ArgsUsage: "URI",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    l10n.T("Output image path (.png or .jpg)"),
					},
					&cli.Int64Flag{
						Name:  "at",
						Usage: l10n.T("Position in milliseconds"),
					},
					&cli.IntFlag{
						Name:    "width",
						Aliases: []string{"W"},
						Usage:   l10n.T("Frame width (default: surface width from config)"),
					},
					&cli.IntFlag{
						Name:    "height",
						Aliases: []string{"H"},
						Usage:   l10n.T("Frame height (default: surface height from config)"),
					},
					&cli.IntFlag{
						Name:  "quality",
						Value: 90,
						Usage: l10n.T("JPEG quality (1-100)"),
					},
				},
				Action: captureAction,
			},
			{
				Name:      "watch",
				Usage:     l10n.T("Print media library changes"),
				ArgsUsage: "DIR...",
				Action:    watchAction,
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("mediactl version %s", version))
					return nil
				},
			},
		},
	}
}

// loadConfig reads the configuration file and applies global overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(osfilesystem.New(), c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// newLogger creates the process logger. All output goes to errOut.
func newLogger(c *cli.Context, cfg config.Config, errOut io.Writer) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsoleWriters(cfg.Level(), errOut, errOut)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if roots := c.StringSlice("watch"); len(roots) > 0 {
		cfg.Library.Roots = roots
	}
	log := newLogger(c, cfg, os.Stderr)

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	registry := player.NewRegistry(mp4engine.Factory(log, ggrenderer.New()), cfg.PlayerOptions(), log)
	defer registry.ReleaseAll(context.Background())

	conn := jsonchannel.NewConn(os.Stdin, os.Stdout, log)
	surface := ggsurface.New(cfg.Surface.Width, cfg.Surface.Height)
	session, err := registry.Open(ctx, c.Int("id"), surface, conn)
	if err != nil {
		return err
	}
	defer session.Close(context.Background())

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Library.Roots) > 0 {
		store := fsnotifystore.New(cfg.Library.Roots, cfg.Library.Extensions, log)
		notifier := contentchange.New(store, cfg.Coalesce(), log)
		if err := notifier.Start(gctx); err != nil {
			return err
		}
		defer notifier.Close()
		notifier.Subscribe(conn)
		g.Go(func() error {
			<-gctx.Done()
			notifier.Unsubscribe()
			return nil
		})
	}

	g.Go(func() error {
		// End of input ends the whole session.
		defer cancel()
		return conn.Serve(gctx, session)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// probeReport is the YAML document printed by probe.
type probeReport struct {
	URI        string         `yaml:"uri"`
	Title      string         `yaml:"title"`
	DurationMs int64          `yaml:"durationMs"`
	Tracks     []player.Track `yaml:"tracks"`
}

func probeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("URI argument is required"), 2)
	}
	uri := c.Args().First()

	path, err := mp4engine.PathFromURI(uri)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	media, err := mp4engine.Probe(f)
	if err != nil {
		return err
	}
	catalog := player.RebuildCatalog(ports.Tracks{Groups: media.Groups})

	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(probeReport{
		URI:        uri,
		Title:      filepath.Base(path),
		DurationMs: media.DurationMs,
		Tracks:     catalog.Tracks(),
	})
}

func captureAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("URI argument is required"), 2)
	}
	uri := c.Args().First()
	output := c.String("output")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg, c.App.ErrWriter)

	width, height := cfg.Surface.Width, cfg.Surface.Height
	if c.IsSet("width") {
		width = c.Int("width")
	}
	if c.IsSet("height") {
		height = c.Int("height")
	}

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	renderer := ggrenderer.New()
	registry := player.NewRegistry(mp4engine.Factory(log, renderer), cfg.PlayerOptions(), log)
	defer registry.ReleaseAll(context.Background())

	session, err := registry.Open(ctx, 1, ggsurface.New(width, height), nil)
	if err != nil {
		return err
	}
	if _, err := session.Handle(ctx, player.CommandPrepare, uri); err != nil {
		return err
	}
	at := c.Int64("at")
	if at > 0 {
		if _, err := session.Handle(ctx, player.CommandSeekTo, at); err != nil {
			return err
		}
	}
	v, err := session.Handle(ctx, player.CommandPixelCopy, nil)
	if err != nil {
		return err
	}

	img, err := renderer.FrameImage(v.([]byte), width, height)
	if err != nil {
		return err
	}
	data, err := renderer.EncodeImage(img, ports.ParseImageFormat(filepath.Ext(output)), c.Int("quality"))
	if err != nil {
		return err
	}
	if err := osfilesystem.New().WriteFile(output, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Info("Frame at %s saved to %s", ggrenderer.FormatPosition(at), output)
	return nil
}

func watchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg, c.App.ErrWriter)

	roots := cfg.Library.Roots
	if c.NArg() > 0 {
		roots = c.Args().Slice()
	}
	if len(roots) == 0 {
		return cli.Exit(l10n.T("At least one directory is required"), 2)
	}

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	store := fsnotifystore.New(roots, cfg.Library.Extensions, log)
	notifier := contentchange.New(store, cfg.Coalesce(), log)
	if err := notifier.Start(ctx); err != nil {
		return err
	}
	defer notifier.Close()

	out := c.App.Writer
	notifier.Subscribe(ports.ChangeSinkFunc(func(change ports.ContentChange) error {
		_, err := fmt.Fprintln(out, change.URI)
		return err
	}))
	log.Info("Watching %s (Ctrl+C to stop)", strings.Join(roots, ", "))

	<-notifier.Done()
	return nil
}
