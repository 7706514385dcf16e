package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gopanel/gopanel/internal/api"
	"github.com/gopanel/gopanel/internal/config"
	"github.com/gopanel/gopanel/internal/logger"
	"github.com/gopanel/gopanel/internal/panel"
	"github.com/gopanel/gopanel/internal/render"
	"github.com/gopanel/gopanel/internal/sutureext"
	"github.com/gopanel/gopanel/internal/theme"
	"github.com/gopanel/gopanel/internal/xconn"
)

func runPanel(cmd *cobra.Command, args []string) error {
	if showUsage {
		fmt.Fprintln(cmd.OutOrStdout(), usageLine)
		return nil
	}

	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}
	configMgr.ApplyOverrides(viper.GetViper())
	cfg := configMgr.Get()

	logger.Init(cfg.LogLevel, cfg.LogPretty)
	log := logger.WithComponent("main")

	if listThemes {
		printThemes(cmd.OutOrStdout(), theme.List(cfg.ThemeDirs))
		return nil
	}

	log.Info().
		Str("config", configMgr.GetConfigPath()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	name := cfg.Theme
	if len(args) > 0 {
		name = args[0]
	}
	th, err := theme.Find(name, cfg.ThemeDirs)
	if err != nil {
		return fmt.Errorf("failed to load theme: %w", err)
	}
	if cfg.ClockFormat != "" {
		th.ClockFormat = cfg.ClockFormat
	}
	log.Info().Str("theme", th.Name).Str("dir", th.Dir).Msg("Theme loaded")

	conn, err := xconn.Dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	spec := panel.Place(th, conn.Workarea(), conn.ScreenSize().Y)
	win, err := conn.CreatePanelWindow(spec)
	if err != nil {
		return fmt.Errorf("failed to create panel window: %w", err)
	}
	defer win.Destroy()

	size := spec.Rect.Size()
	p := panel.New(panel.Options{
		Source:    conn,
		Commander: conn,
		Self:      win.ID(),
		Theme:     th,
		Renderer:  render.New(th, win, size),
		Size:      size,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	super := sutureext.New("gopanel")
	sutureext.Add(super, panel.NewService(p, conn))
	if cfg.API.Listen != "" {
		sutureext.Add(super, api.NewServer(cfg.API.Listen, p))
	}

	err = super.Serve(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		log.Info().Msg("Shutting down")
		return nil
	}
	return err
}

func printThemes(w io.Writer, listings []theme.Listing) {
	for _, l := range listings {
		fmt.Fprintf(w, "themes in %s:\n", l.Dir)
		if len(l.Themes) == 0 {
			fmt.Fprintln(w, "  - none")
			continue
		}
		for _, name := range l.Themes {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
}
