// Package backend resolves Ingress path backends to upstream addresses.
package backend

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/metrics"
)

// Backend is the resolved target of an Ingress path.
type Backend struct {
	// Upstream is a host:port address the proxy forwards to.
	Upstream string
}

// Resolver maps an Ingress path entry to its upstream.
// Errors are returned as-is to the caller; rewriters do not wrap them.
type Resolver interface {
	Resolve(ctx context.Context, pathEntry map[string]any, obj *unstructured.Unstructured) (Backend, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, pathEntry map[string]any, obj *unstructured.Unstructured) (Backend, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, pathEntry map[string]any, obj *unstructured.Unstructured) (Backend, error) {
	return f(ctx, pathEntry, obj)
}

// Failure reasons carried by RefError.
const (
	ReasonBackendNotFound = "BackendNotFound"
	ReasonInvalidBackend  = "InvalidBackend"
)

// RefError represents a backend reference that could not be resolved.
type RefError struct {
	IngressNamespace string
	IngressName      string
	BackendName      string
	BackendNS        string
	Reason           string // ReasonBackendNotFound or ReasonInvalidBackend
	Message          string
}

func (e *RefError) Error() string {
	return fmt.Sprintf("ingress %s/%s: %s: %s", e.IngressNamespace, e.IngressName, e.Reason, e.Message)
}

// MetricReason labels RefError in run error metrics.
func (e *RefError) MetricReason() string {
	return metrics.ErrorTypeBackend
}
