package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gopanel/gopanel/internal/build"
	"github.com/gopanel/gopanel/internal/config"
)

const usageLine = "usage: gopanel [--version] [--help] [--usage] [--list] THEME"

var (
	cfgFile    string
	listThemes bool
	showUsage  bool

	rootCmd = &cobra.Command{
		Use:   "gopanel [THEME]",
		Short: "gopanel - a lightweight X11 panel",
		Long: `gopanel is a panel for EWMH window managers. It shows a desktop
switcher, a taskbar with the windows of the current desktop and a clock,
and follows the window manager's state as it changes.

THEME is a directory name looked up in the user and system theme
directories, or a path to a theme directory.`,
		Example: `  # Run with the default theme
  gopanel

  # Run with a named theme and the introspection API
  gopanel --api 127.0.0.1:8340 native

  # Show installed themes
  gopanel --list`,
		Version:            build.Current.Version,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		SilenceUsage:       true,
		RunE:               runPanel,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetVersionTemplate(build.Current.String() + "\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/gopanel/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("api", "", "address of the introspection API (disabled when empty)")
	rootCmd.Flags().BoolVar(&listThemes, "list", false, "list installed themes and exit")
	rootCmd.Flags().BoolVar(&showUsage, "usage", false, "print a usage line and exit")

	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag(config.KeyAPIListen, rootCmd.PersistentFlags().Lookup("api"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	viper.SetEnvPrefix("GOPANEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}
