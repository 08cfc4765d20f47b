package nginx

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/manifest"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
)

// Name is the canonical dialect name and the ingress class it claims.
const Name = "nginx"

// Rewriter translates ingress-nginx manifests into routing entries.
type Rewriter struct{}

// New creates the ingress-nginx dialect.
func New() *Rewriter {
	return &Rewriter{}
}

// Name returns "nginx".
func (*Rewriter) Name() string {
	return Name
}

// Match claims manifests whose ingress class resolves to "nginx", or that
// carry at least one nginx.ingress.kubernetes.io/ annotation.
func (*Rewriter) Match(obj *unstructured.Unstructured, rctx *rewriter.Context) bool {
	var ingressTypes map[string]string
	if rctx != nil {
		ingressTypes = rctx.Config.IngressTypes
	}

	if manifest.IngressClass(obj, ingressTypes) == Name {
		return true
	}

	for key := range manifest.Annotations(obj) {
		if strings.HasPrefix(key, AnnotationPrefix) {
			return true
		}
	}

	return false
}

// Rewrite emits one routing entry per path of every rule with a host,
// in manifest order. Resolver errors are returned unchanged.
//
//nolint:wrapcheck // resolver errors are part of the contract and pass through as-is
func (*Rewriter) Rewrite(
	ctx context.Context,
	obj *unstructured.Unstructured,
	rctx *rewriter.Context,
) ([]rewriter.RoutingEntry, error) {
	if rctx == nil || rctx.Resolver == nil {
		return nil, errors.New("nginx rewriter requires a backend resolver")
	}

	annotations := manifest.Annotations(obj)
	logger := rctx.Log().With("dialect", Name, "ingress", manifest.Key(obj))

	scheme := rewriter.SchemeHTTP
	if strings.EqualFold(annotations[BackendProtocolAnnotation], backendProtocolHTTPS) {
		scheme = rewriter.SchemeHTTPS
	}

	//nolint:prealloc // size depends on rules with a host
	var entries []rewriter.RoutingEntry

	for _, rule := range manifest.Rules(obj) {
		host := manifest.Host(rule)
		if host == "" {
			logger.Debug("skipping rule without host")

			continue
		}

		for _, pathEntry := range manifest.Paths(rule) {
			path := manifest.PathOf(pathEntry)

			resolved, err := rctx.Resolver.Resolve(ctx, pathEntry, obj)
			if err != nil {
				return nil, err
			}

			entry := rewriter.RoutingEntry{
				Host:        host,
				Path:        path,
				Upstream:    resolved.Upstream,
				Scheme:      scheme,
				StripPrefix: StripPrefix(annotations[RewriteTargetAnnotation], path),
			}

			if extra := extraDirectives(annotations); len(extra) > 0 {
				entry.ExtraDirectives = extra
			}

			logger.Debug("routing entry",
				"host", entry.Host,
				"path", entry.Path,
				"upstream", entry.Upstream,
				"extra_directives", len(entry.ExtraDirectives),
			)

			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// extraDirectives builds the directive list in its fixed order: CORS headers,
// snippet headers, then the body size limit. Each call returns a fresh slice.
func extraDirectives(annotations map[string]string) []string {
	var extra []string

	extra = append(extra, corsDirectives(annotations)...)
	extra = append(extra, snippetHeaders(annotations[ConfigurationSnippetAnnotation])...)
	extra = append(extra, bodySizeDirective(annotations)...)

	return extra
}
