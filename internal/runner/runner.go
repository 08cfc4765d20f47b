// Package runner wires the loader, resolver, dialect registry, pipeline and
// output writer into one rewrite run.
package runner

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/backend"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/config"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/manifest"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/metrics"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/output"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/pipeline"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter/nginx"
)

// ClientFactory creates the cluster client used to look Services up.
type ClientFactory func() (client.Reader, error)

// Runner executes rewrite runs.
type Runner struct {
	// Out receives the routing entries.
	Out io.Writer

	// Logger receives progress and diagnostics.
	Logger *slog.Logger

	// NewClient is called only when services are resolved against a live
	// cluster. Defaults to InClusterClient.
	NewClient ClientFactory
}

// Run loads the manifests named by cfg, rewrites them and writes the
// routing entries to r.Out. Metrics are written to cfg.MetricsFile even
// when the run fails.
//
//nolint:funlen // run setup requires multiple steps
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	if cfg.MetricsFile != "" {
		defer func() {
			if writeErr := prometheus.WriteToTextfile(cfg.MetricsFile, registry); writeErr != nil {
				err = errors.CombineErrors(err, errors.Wrap(writeErr, "failed to write metrics file"))
			}
		}()
	}

	objs, err := manifest.LoadFiles(cfg.Files...)
	if err != nil {
		return errors.Wrap(err, "failed to load manifests")
	}

	logger.Info("manifests loaded", "files", len(cfg.Files), "objects", len(objs))

	var reader client.Reader

	if cfg.ResolveServices {
		factory := r.NewClient
		if factory == nil {
			factory = InClusterClient
		}

		reader, err = factory()
		if err != nil {
			return errors.Wrap(err, "failed to create kubernetes client")
		}

		logger.Info("resolving services against the cluster")
	}

	dialects, err := rewriter.NewRegistry(nginx.New())
	if err != nil {
		return errors.Wrap(err, "failed to register dialects")
	}

	rctx := &rewriter.Context{
		Config:   cfg.RewriterConfig(),
		Resolver: backend.NewServiceResolver(cfg.ClusterDomain, reader, collector, logger),
		Logger:   logger,
	}

	result, err := pipeline.New(dialects, rctx, collector, logger, cfg.Workers).Run(ctx, objs)
	if err != nil {
		return err
	}

	for _, key := range result.Unmatched {
		logger.Warn("ingress not handled by any dialect", "ingress", key)
	}

	if cfg.Previous != "" {
		if err := reportChanges(cfg.Previous, result.Entries, logger); err != nil {
			return err
		}
	}

	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	if err := output.Write(out, result.Entries, cfg.Output); err != nil {
		return errors.Wrap(err, "failed to write output")
	}

	return nil
}

// reportChanges logs entries added and removed relative to a previous output.
func reportChanges(path string, entries []rewriter.RoutingEntry, logger *slog.Logger) error {
	file, err := os.Open(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return errors.Wrapf(err, "failed to open previous output %s", path)
	}
	defer file.Close()

	previous, err := output.Read(file)
	if err != nil {
		return errors.Wrapf(err, "failed to read previous output %s", path)
	}

	toAdd, toRemove := output.Diff(previous, entries)

	for _, entry := range toAdd {
		logger.Info("routing entry added", "host", entry.Host, "path", entry.Path, "upstream", entry.Upstream)
	}

	for _, entry := range toRemove {
		logger.Info("routing entry removed", "host", entry.Host, "path", entry.Path, "upstream", entry.Upstream)
	}

	logger.Info("routing entries compared with previous output",
		"previous", path,
		"added", len(toAdd),
		"removed", len(toRemove),
	)

	return nil
}

// InClusterClient builds a read client from the kubeconfig or in-cluster
// configuration, following controller-runtime's lookup rules.
func InClusterClient() (client.Reader, error) {
	restConfig, err := ctrl.GetConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load kubernetes config")
	}

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, errors.Wrap(err, "failed to build client scheme")
	}

	c, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}

	return c, nil
}
