package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/b97tsk/minirt"
	"github.com/b97tsk/minirt/internal/config"
	"github.com/b97tsk/minirt/internal/logging"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagName      string
)

// persistentKeys maps root flags to config keys.
var persistentKeys = map[string]string{
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"name":       "executor.name",
}

// NewRootCmd creates the root cobra command for the minirt CLI.
func NewRootCmd() *cobra.Command {
	defaults := config.Default()

	root := &cobra.Command{
		Use:   "minirt",
		Short: "minirt: a minimal single-threaded task executor",
		Long: `minirt runs small demo programs on a single-threaded executor of
futures, with timed suspensions backed by timing agents.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", defaults.Logging.Level, "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", defaults.Logging.Format, "Log format (text, json)")
	root.PersistentFlags().StringVar(&flagName, "name", "", "Executor name in log records (default: random UUID)")

	root.AddCommand(
		newHelloCmd(),
		newSleepCmd(),
		newJoinCmd(),
		newFaninCmd(),
	)

	return root
}

// setup loads the configuration for cmd, with flags of cmd bound to config
// keys as given by keys, and returns an executor configured from it.
func setup(cmd *cobra.Command, keys map[string]string) (*config.Config, *minirt.Executor, error) {
	v, err := config.NewViper(flagConfig)
	if err != nil {
		return nil, nil, err
	}

	if err := bindFlags(v, cmd.Root(), persistentKeys, true); err != nil {
		return nil, nil, err
	}
	if err := bindFlags(v, cmd, keys, false); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLoggerWithWriter(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, cmd.ErrOrStderr())

	opts := []minirt.Option{minirt.WithLogger(logger)}
	if cfg.Executor.Name != "" {
		opts = append(opts, minirt.WithName(cfg.Executor.Name))
	}

	e := minirt.NewExecutor(opts...)

	logger.Debug("config loaded", "command", cmd.Name(), "executor", e.Name(), "file", v.ConfigFileUsed())

	return cfg, e, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string, persistent bool) error {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for name, key := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind %s: no such flag --%s", key, name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// run runs e and turns a panic of any of its tasks into an error.
func run(e *minirt.Executor) (err error) {
	defer func() {
		if v := recover(); v != nil {
			perr, ok := v.(error)
			if !ok {
				panic(v) // Not a task panic.
			}
			err = fmt.Errorf("executor %s: %w", e.Name(), perr)
		}
	}()

	e.Run()

	return nil
}

// errTaskFailed is what a demo task panics with when asked to fail.
var errTaskFailed = errors.New("task failed on purpose")
