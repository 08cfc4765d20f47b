package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/config"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/runner"
)

//nolint:gochecknoglobals // set by SetVersion from main
var (
	version = "development"
	gitsha  = "development"
)

func SetVersion(ver, sha string) {
	version = ver
	gitsha = sha
}

// NewRootCommand builds the root command bound to v.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nginx-ingress-rewriter [files or directories...]",
		Short: "Rewrite ingress-nginx Ingresses into neutral routing entries",
		Long: `Reads Kubernetes manifests, picks the Ingresses handled by ingress-nginx
(by ingress class or nginx.ingress.kubernetes.io/ annotations) and prints one
routing entry per host and path: upstream, scheme, prefix to strip and the
reverse-proxy directives equivalent to the supported annotations.`,
		Args:          cobra.MinimumNArgs(1),
		Version:       fmt.Sprintf("%s (%s)", version, gitsha),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewriter(cmd.Context(), v, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String(config.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String(config.KeyLogFormat, "json", "Log format (json, text)")

	rootCmd.Flags().StringToString(config.KeyIngressTypes, map[string]string{},
		"Map custom ingress class names to dialects (e.g. internal=nginx)")
	rootCmd.Flags().String(config.KeyClusterDomain, "cluster.local", "Kubernetes cluster domain")
	rootCmd.Flags().StringP(config.KeyOutput, "o", "yaml", "Output format (yaml, json)")
	rootCmd.Flags().Int(config.KeyWorkers, 4, "Number of manifests rewritten concurrently")
	rootCmd.Flags().Bool(config.KeyResolveServices, false,
		"Look Services up in the cluster to resolve ExternalName services and named ports")
	rootCmd.Flags().String(config.KeyMetricsFile, "", "Write run metrics in Prometheus text format to this file")
	rootCmd.Flags().String(config.KeyPrevious, "", "Previous output file to report added and removed entries against")

	_ = v.BindPFlags(rootCmd.Flags())
	_ = v.BindPFlags(rootCmd.PersistentFlags())

	return rootCmd
}

func Execute() error {
	v := viper.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := NewRootCommand(v).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	return errors.Wrap(err, "command execution failed")
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	config.BindEnv(v)
	config.SetDefaults(v)

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return nil
	}

	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", configFile)
	}

	return nil
}

func setupLogger(v *viper.Viper, w io.Writer) *slog.Logger {
	level := slog.LevelInfo

	switch v.GetString(config.KeyLogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if v.GetString(config.KeyLogFormat) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func runRewriter(ctx context.Context, v *viper.Viper, args []string, stdout, stderr io.Writer) error {
	logger := setupLogger(v, stderr)
	slog.SetDefault(logger)

	ctrl.SetLogger(logr.FromSlogHandler(logger.Handler()))

	logger.Debug("starting nginx-ingress-rewriter",
		"version", version,
		"gitsha", gitsha,
	)

	cfg, err := config.FromViper(v, args)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	r := &runner.Runner{Out: stdout, Logger: logger}

	if err := r.Run(ctx, cfg); err != nil {
		return errors.Wrap(err, "failed to rewrite manifests")
	}

	return nil
}
