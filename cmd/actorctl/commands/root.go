// Package commands implements the actorctl demo CLI's command tree,
// following the same cobra layout the teacher's cmd/substrate/commands
// package uses: a package-level rootCmd, global persistent flags, and one
// file per subcommand that appends itself via init().
package commands

import (
	"os"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
	"github.com/spf13/cobra"

	"github.com/tomjolt/actorcore/internal/baselib/actor"
	"github.com/tomjolt/actorcore/internal/build"
)

var (
	// logLevel controls verbosity of the actor engine's lifecycle
	// logging.
	logLevel string

	// logDir, when non-empty, enables a rotating log file alongside the
	// console in addition to stderr.
	logDir string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "actorctl",
	Short: "actorcore demo CLI",
	Long: `actorctl runs small, self-contained scenarios against the actorcore
supervision-tree engine: dispatch/query round trips, idle shutdown,
fault escalation, and state reset.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setUpLogging()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info",
		"Logging level for actor lifecycle events: trace, debug, info, warn, error",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "log-dir", "",
		"Directory for a rotating log file (empty disables file logging)",
	)
}

// setUpLogging wires a console btclogv2 handler, and optionally a rotating
// file handler, through build.HandlerSet into actor.UseLogger — the same
// dual-stream pattern cmd/substrated/main.go uses for its daemon
// subsystems.
func setUpLogging() {
	var handlers []btclogv2.Handler
	handlers = append(handlers, btclogv2.NewDefaultHandler(os.Stderr))

	if logDir != "" {
		rotator := build.NewRotatingLogWriter()
		err := rotator.InitLogRotator(&build.LogRotatorConfig{
			LogDir:         logDir,
			MaxLogFiles:    build.DefaultMaxLogFiles,
			MaxLogFileSize: build.DefaultMaxLogFileSize,
		})
		if err != nil {
			os.Stderr.WriteString(
				"failed to init log rotator, continuing with console only: " +
					err.Error() + "\n",
			)
		} else {
			handlers = append(handlers, btclogv2.NewDefaultHandler(rotator))
		}
	}

	combined := build.NewHandlerSet(handlers...)
	combined.SetLevel(parseLevel(logLevel))

	actor.UseLogger(btclogv2.NewSLogger(combined))
}

// parseLevel maps the --log-level flag to a btclog.Level, defaulting to
// Info for anything unrecognized.
func parseLevel(s string) btclog.Level {
	switch s {
	case "trace":
		return btclog.LevelTrace
	case "debug":
		return btclog.LevelDebug
	case "warn":
		return btclog.LevelWarn
	case "error":
		return btclog.LevelError
	case "critical":
		return btclog.LevelCritical
	case "off":
		return btclog.LevelOff
	default:
		return btclog.LevelInfo
	}
}
