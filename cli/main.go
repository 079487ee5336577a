package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Octogonapus/EditorBenchmark/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "EDITORBENCH"

type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "editorbench",
		Short:         "Compare the runtime cost of the Lexical and ProseMirror editors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := a.bind(cmd.Flags())
			if err != nil {
				return err
			}
			return a.setUpLogging()
		},
	}
	root.PersistentFlags().String("log-level", "info", "The log level: debug, info, warn or error.")
	root.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running, e.g. :2112. Disabled when empty.")

	root.AddCommand(
		a.newRunCmd(),
		a.newGraphsCmd(),
		a.newTraceCmd(),
		a.newAverageCmd(),
	)
	return root
}

// bind makes every flag of the command also settable as EDITORBENCH_<FLAG_NAME>.
func (a *app) bind(flags *pflag.FlagSet) error {
	err := a.v.BindPFlags(flags)
	if err != nil {
		return fmt.Errorf("binding flags failed: %w", err)
	}
	return nil
}

func (a *app) setUpLogging() error {
	var level slog.Level
	err := level.UnmarshalText([]byte(a.v.GetString("log-level")))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

// serveMetrics exposes the harness metrics until ctx is done, when an address is configured.
func (a *app) serveMetrics(ctx context.Context) {
	addr := a.v.GetString("metrics-addr")
	if addr == "" {
		return
	}
	go func() {
		err := metrics.Serve(ctx, addr)
		if err != nil {
			slog.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
}

func main() {
	// A missing .env is fine, the environment and flags still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
