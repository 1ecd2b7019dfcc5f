package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"algo-trader/internal/broker"
	"algo-trader/internal/config"
	"algo-trader/internal/logging"
	"algo-trader/internal/store"
)

// Version information, set at build time.
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// App holds the shared application state for all commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Broker broker.Broker
	Store  store.DataStore

	configDir string
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Broker != nil && a.Broker.IsConnected() {
		a.Broker.Disconnect()
	}
}

// init loads configuration and opens the store and broker. Called lazily by
// commands that need the full stack; config-only commands call loadConfig.
func (a *App) init() error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	dbPath := a.Config.Storage.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DefaultConfigDir(), "algobot.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	a.Store = st
	a.Broker = broker.NewSimBroker(100000)
	return nil
}

func (a *App) loadConfig() error {
	if a.Config != nil {
		return nil
	}
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.Config = cfg
	return nil
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "algobot",
		Short: "Signal generation and execution engine",
		Long: `algobot scans a symbol universe, tracks moving-average crossovers,
executes the resulting signals as orders, and reports on schedule.

Paper mode fills orders immediately against a simulated broker. Live mode
submits through the configured broker with idempotent, retried placement.`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			logCfg := logging.DefaultLogConfig()
			if debug {
				logCfg.Level = "debug"
			}
			if cmd.Name() != "run" {
				logCfg.Console = false
			}
			app.Logger = logging.NewLoggerWithConfig(logCfg)
			app.configDir, _ = cmd.Flags().GetString("config")
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default ~/.config/algobot)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(app),
		newScanCmd(app),
		newStrategyCmd(app),
		newOrdersCmd(app),
		newReportCmd(app),
		newRunCmd(app),
	)

	return rootCmd
}

// Execute runs the root command and returns an exit code.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
