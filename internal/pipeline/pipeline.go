// Package pipeline dispatches Ingress manifests to registered dialects and
// collects their routing entries in manifest order.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/manifest"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/metrics"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
)

// DefaultWorkers bounds concurrent rewrites when Workers is not set.
const DefaultWorkers = 4

// Pipeline runs every Ingress through the first dialect that matches it.
type Pipeline struct {
	// Registry holds the dialects in dispatch order.
	Registry *rewriter.Registry

	// Context is shared read-only by all rewrites of a run.
	Context *rewriter.Context

	// Metrics records rewrite durations, entry counts and failures.
	Metrics metrics.Collector

	// Logger receives per-run and per-manifest log lines.
	Logger *slog.Logger

	// Workers bounds the number of manifests rewritten concurrently.
	Workers int
}

// Result is the output of one run.
type Result struct {
	// Entries are the routing entries of all matched manifests, in input order.
	Entries []rewriter.RoutingEntry

	// Unmatched lists "namespace/name" of ingresses no dialect claimed.
	Unmatched []string

	// Skipped counts objects that are not Ingresses.
	Skipped int
}

// manifestOutput is the per-manifest slot filled by a worker.
type manifestOutput struct {
	key     string
	matched bool
	entries []rewriter.RoutingEntry
}

// New creates a Pipeline. A nil collector records nothing, a nil logger uses
// slog.Default and a non-positive workers value uses DefaultWorkers.
func New(
	registry *rewriter.Registry,
	rctx *rewriter.Context,
	m metrics.Collector,
	logger *slog.Logger,
	workers int,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		Registry: registry,
		Context:  rctx,
		Metrics:  m,
		Logger:   logger.With("component", "pipeline"),
		Workers:  workers,
	}
}

// Run rewrites objs. Non-Ingress objects are skipped. The first rewrite error
// cancels the remaining work and is returned with the manifest key attached.
func (p *Pipeline) Run(ctx context.Context, objs []*unstructured.Unstructured) (*Result, error) {
	startTime := time.Now()
	logger := p.log().With("run_id", uuid.NewString())

	if p.Registry == nil {
		return nil, errors.New("pipeline requires a rewriter registry")
	}

	ingresses := manifest.Ingresses(objs)
	outputs := make([]manifestOutput, len(ingresses))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers())

	for idx, obj := range ingresses {
		group.Go(func() error {
			out, err := p.rewriteManifest(groupCtx, logger, obj)
			if err != nil {
				return err
			}

			outputs[idx] = out

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		p.collector().RecordRunError(ctx, metrics.ClassifyError(err))
		logger.Error("rewrite run failed", "error", err)

		return nil, err
	}

	result := &Result{Skipped: len(objs) - len(ingresses)}

	for _, out := range outputs {
		if !out.matched {
			result.Unmatched = append(result.Unmatched, out.key)

			continue
		}

		result.Entries = append(result.Entries, out.entries...)
	}

	logger.Info("rewrite run completed",
		"ingresses", len(ingresses),
		"entries", len(result.Entries),
		"unmatched", len(result.Unmatched),
		"skipped", result.Skipped,
		"duration", time.Since(startTime),
	)

	return result, nil
}

func (p *Pipeline) rewriteManifest(
	ctx context.Context,
	logger *slog.Logger,
	obj *unstructured.Unstructured,
) (manifestOutput, error) {
	out := manifestOutput{key: manifest.Key(obj)}

	if err := ctx.Err(); err != nil {
		return out, errors.Wrapf(err, "rewrite of ingress %s aborted", out.key)
	}

	rw, matched := p.Registry.Dispatch(obj, p.Context)
	if !matched {
		p.collector().RecordUnmatchedManifest(ctx)
		logger.Info("no dialect matched ingress", "ingress", out.key)

		return out, nil
	}

	startTime := time.Now()

	entries, err := rw.Rewrite(ctx, obj, p.Context)
	if err != nil {
		return out, errors.Wrapf(err, "failed to rewrite ingress %s with %s dialect", out.key, rw.Name())
	}

	p.collector().RecordRewriteDuration(ctx, rw.Name(), time.Since(startTime))
	p.collector().RecordRoutingEntries(ctx, rw.Name(), len(entries))

	logger.Debug("ingress rewritten",
		"ingress", out.key,
		"dialect", rw.Name(),
		"entries", len(entries),
	)

	out.matched = true
	out.entries = entries

	return out, nil
}

func (p *Pipeline) log() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}

	return p.Logger
}

func (p *Pipeline) collector() metrics.Collector {
	if p.Metrics == nil {
		return metrics.NewNoopCollector()
	}

	return p.Metrics
}

func (p *Pipeline) workers() int {
	if p.Workers <= 0 {
		return DefaultWorkers
	}

	return p.Workers
}
