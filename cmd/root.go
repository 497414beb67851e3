package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/portal/internal/app"
	"github.com/zjrosen/portal/internal/basket"
	"github.com/zjrosen/portal/internal/config"
	"github.com/zjrosen/portal/internal/flags"
	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/mode"
	"github.com/zjrosen/portal/internal/mode/shared"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not race the input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".portal/config.yaml"

var (
	version    = "dev"
	cfgFile    string
	cfgPath    string
	debug      bool
	cfg        config.Config
	cfgLoadErr error
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "A terminal client for the customer account portal",
	Long: `A terminal user interface for browsing order and quote history across
your saved sites, with a local cart and quote draft.

Sign in first with 'portal login'.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfgLoadErr
	},
	RunE: runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .portal/config.yaml, then ~/.config/portal/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write a debug log next to the config file (also PORTAL_DEBUG=1)")
	rootCmd.PersistentFlags().String("api-base", "",
		"backend origin, overrides api_base")

	_ = viper.BindPFlag("api_base", rootCmd.PersistentFlags().Lookup("api-base"))
}

func initConfig() {
	cfg, cfgPath, cfgLoadErr = loadConfig(viper.GetViper(), cfgFile)
	if os.Getenv("PORTAL_DEBUG") != "" {
		debug = true
	}
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("api_base", d.APIBase)
	v.SetDefault("data_api_base", d.DataAPIBase)
	v.SetDefault("session_file", d.SessionFile)
	v.SetDefault("store_path", d.StorePath)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("listing.debounce", d.Listing.Debounce)
	v.SetDefault("listing.default_page_size", d.Listing.DefaultPageSize)
	v.SetDefault("listing.default_tab", d.Listing.DefaultTab)
	v.SetDefault("listing.clear_local_on_error", d.Listing.ClearLocalOnError)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("flags", map[string]bool{
		flags.FlagQuotePDF:     true,
		flags.FlagSessionWatch: true,
	})
}

// loadConfig resolves the config file, writes the default one when none
// exists, and returns the validated config with the path it came from.
//
// Lookup order:
//  1. explicit (--config)
//  2. .portal/config.yaml in the current directory
//  3. ~/.config/portal/config.yaml
func loadConfig(v *viper.Viper, explicit string) (config.Config, string, error) {
	setDefaults(v)
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := explicit
	if path == "" {
		path = findConfig()
	}

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			// Continue with defaults when the file cannot be written.
			if writeErr := config.WriteDefaultConfig(path); writeErr != nil {
				path = ""
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, path, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var c config.Config
	if err := v.Unmarshal(&c); err != nil {
		return config.Config{}, path, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(c); err != nil {
		return config.Config{}, path, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, path, nil
}

// findConfig returns the first existing config file, or the user config
// path when there is none yet.
func findConfig() string {
	if _, err := os.Stat(localConfigPath); err == nil {
		return localConfigPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "portal", "config.yaml")
}

// initLog installs the debug log when --debug or PORTAL_DEBUG is set.
func initLog() (func(), error) {
	if !debug {
		return func() {}, nil
	}
	dir := "."
	if cfgPath != "" {
		dir = filepath.Dir(cfgPath)
	}
	return log.Init(filepath.Join(dir, "debug.log"))
}

func runApp(cmd *cobra.Command, args []string) error {
	closeLog, err := initLog()
	if err != nil {
		return err
	}
	defer closeLog()

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	sess, err := rt.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	model := app.New(app.Options{
		Services: mode.Services{
			Backend:    rt.client,
			Session:    sess,
			Cart:       basket.NewService(db.BasketRepository(), basket.Cart),
			Quote:      basket.NewService(db.BasketRepository(), basket.Quote),
			Config:     &cfg,
			ConfigPath: cfgPath,
			Flags:      flags.New(cfg.Flags),
			Clipboard:  shared.SystemClipboard{},
			Clock:      shared.RealClock{},
		},
		Session:     sess,
		SessionFile: cfg.SessionFile,
		Debug:       debug,
	})
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)

	final, err := p.Run()

	// Close the model the program ended with; it owns the live watchers.
	if fm, ok := final.(app.Model); ok {
		model = fm
	}
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// commandContext bounds one-shot subcommands by the request timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, cfg.RequestTimeout+5*time.Second)
	}
	return context.WithCancel(ctx)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
