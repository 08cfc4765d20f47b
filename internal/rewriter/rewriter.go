package rewriter

import (
	"context"
	"log/slog"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/backend"
)

// Upstream schemes.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// RoutingEntry is one normalized host+path route.
type RoutingEntry struct {
	Host     string `json:"host"`
	Path     string `json:"path"`
	Upstream string `json:"upstream"`
	Scheme   string `json:"scheme"`

	// StripPrefix is removed from the request path before proxying.
	// Empty means no prefix is stripped.
	StripPrefix string `json:"strip_prefix,omitempty"`

	// ExtraDirectives are opaque proxy directives in renderer syntax.
	// Nil when the route has none, never an empty slice.
	ExtraDirectives []string `json:"extra_directives,omitempty"`
}

// Config holds the settings dialects read from the run configuration.
type Config struct {
	// IngressTypes maps custom ingress class names to canonical dialect names.
	IngressTypes map[string]string `json:"ingressTypes,omitempty"`
}

// Context carries the collaborators a dialect needs for one run.
// It is read-only during Match and Rewrite and safe to share across goroutines.
type Context struct {
	Config   Config
	Resolver backend.Resolver
	Logger   *slog.Logger
}

// Log returns the context logger, or slog.Default when unset.
func (c *Context) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}

	return c.Logger
}

// Rewriter converts manifests of one ingress controller dialect.
type Rewriter interface {
	// Name returns the canonical dialect name.
	Name() string

	// Match reports whether obj belongs to this dialect. It has no side
	// effects and never fails on malformed input.
	Match(obj *unstructured.Unstructured, rctx *Context) bool

	// Rewrite returns obj's routing entries in rule/path order. The only
	// error source is the backend resolver, whose errors pass through unchanged.
	Rewrite(ctx context.Context, obj *unstructured.Unstructured, rctx *Context) ([]RoutingEntry, error)
}
