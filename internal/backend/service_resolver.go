package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cockroachdb/errors"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/manifest"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/metrics"
)

// DefaultClusterDomain is the Kubernetes cluster domain used when none is configured.
const DefaultClusterDomain = "cluster.local"

// ServiceResolver resolves Ingress service backends to cluster DNS addresses:
//
//	<service>.<namespace>.svc.<cluster-domain>:<port>
//
// Both networking.k8s.io/v1 (backend.service) and legacy extensions/v1beta1
// (backend.serviceName, backend.servicePort) backends are understood.
type ServiceResolver struct {
	// ClusterDomain is the Kubernetes cluster domain suffix for service DNS.
	ClusterDomain string

	// Client is used to fetch Service objects for ExternalName and named port
	// resolution. If nil, all services resolve to cluster-local DNS and named
	// ports are rejected.
	Client client.Reader

	// Metrics records resolution results.
	Metrics metrics.Collector

	logger *slog.Logger
}

// NewServiceResolver creates a ServiceResolver. A nil logger uses slog.Default.
func NewServiceResolver(clusterDomain string, c client.Reader, m metrics.Collector, logger *slog.Logger) *ServiceResolver {
	if clusterDomain == "" {
		clusterDomain = DefaultClusterDomain
	}

	if m == nil {
		m = metrics.NewNoopCollector()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ServiceResolver{
		ClusterDomain: clusterDomain,
		Client:        c,
		Metrics:       m,
		logger:        logger.With("component", "service-resolver"),
	}
}

// serviceRef is a parsed Ingress service backend.
type serviceRef struct {
	ingressNS   string
	ingressName string
	name        string
	namespace   string
	portNumber  int
	portName    string
}

func (r serviceRef) refError(reason, message string) *RefError {
	return &RefError{
		IngressNamespace: r.ingressNS,
		IngressName:      r.ingressName,
		BackendName:      r.name,
		BackendNS:        r.namespace,
		Reason:           reason,
		Message:          message,
	}
}

// Resolve implements Resolver.
func (r *ServiceResolver) Resolve(ctx context.Context, pathEntry map[string]any, obj *unstructured.Unstructured) (Backend, error) {
	ref, refErr := parseServiceRef(pathEntry, obj)
	if refErr != nil {
		r.Metrics.RecordBackendResolution(ctx, "failed", refErr.Reason)

		return Backend{}, refErr
	}

	upstream, err := r.resolveServiceAddress(ctx, ref)
	if err != nil {
		reason := metrics.ClassifyError(err)

		var resolveErr *RefError
		if errors.As(err, &resolveErr) {
			reason = resolveErr.Reason
		}

		r.Metrics.RecordBackendResolution(ctx, "failed", reason)

		return Backend{}, err
	}

	r.Metrics.RecordBackendResolution(ctx, "success", "")

	return Backend{Upstream: upstream}, nil
}

// resolveServiceAddress handles ExternalName services, named ports and the
// cluster-local DNS fallback.
func (r *ServiceResolver) resolveServiceAddress(ctx context.Context, ref serviceRef) (string, error) {
	port := ref.portNumber

	if r.Client != nil {
		svc := &corev1.Service{}

		err := r.Client.Get(ctx, types.NamespacedName{
			Name:      ref.name,
			Namespace: ref.namespace,
		}, svc)

		switch {
		case err == nil:
			if ref.portName != "" {
				number, found := namedServicePort(svc, ref.portName)
				if !found {
					return "", ref.refError(ReasonInvalidBackend,
						fmt.Sprintf("Service %s/%s has no port named %q", ref.namespace, ref.name, ref.portName))
				}

				port = number
			}

			if svc.Spec.Type == corev1.ServiceTypeExternalName {
				return fmt.Sprintf("%s:%d", svc.Spec.ExternalName, port), nil
			}
		case apierrors.IsNotFound(err):
			return "", ref.refError(ReasonBackendNotFound,
				fmt.Sprintf("Service %s/%s not found", ref.namespace, ref.name))
		case ctx.Err() != nil:
			return "", errors.Wrapf(ctx.Err(), "failed to fetch Service %s/%s", ref.namespace, ref.name)
		default:
			// Log error and fall back to cluster-local DNS
			r.logger.Warn("failed to fetch Service, using cluster-local DNS",
				"service", fmt.Sprintf("%s/%s", ref.namespace, ref.name),
				"error", err.Error(),
			)
		}
	}

	if port == 0 {
		return "", ref.refError(ReasonInvalidBackend,
			fmt.Sprintf("named port %q of Service %s/%s cannot be resolved without cluster access",
				ref.portName, ref.namespace, ref.name))
	}

	return fmt.Sprintf("%s.%s.svc.%s:%d",
		ref.name,
		ref.namespace,
		r.ClusterDomain,
		port,
	), nil
}

func namedServicePort(svc *corev1.Service, name string) (int, bool) {
	for _, servicePort := range svc.Spec.Ports {
		if servicePort.Name == name {
			return int(servicePort.Port), true
		}
	}

	return 0, false
}

// parseServiceRef reads backend.service (v1) or backend.serviceName/servicePort (v1beta1).
func parseServiceRef(pathEntry map[string]any, obj *unstructured.Unstructured) (serviceRef, *RefError) {
	ref := serviceRef{
		ingressNS: manifest.Namespace(obj),
		namespace: manifest.Namespace(obj),
	}

	if obj != nil {
		ref.ingressName = obj.GetName()
	}

	if service, found := nestedValue(pathEntry, "backend", "service").(map[string]any); found {
		ref.name, _ = service["name"].(string)
		ref.portNumber, _ = toInt(nestedValue(service, "port", "number"))
		ref.portName, _ = nestedValue(service, "port", "name").(string)
	} else {
		ref.name, _ = nestedValue(pathEntry, "backend", "serviceName").(string)

		legacyPort := nestedValue(pathEntry, "backend", "servicePort")
		if number, ok := toInt(legacyPort); ok {
			ref.portNumber = number
		} else if text, isText := legacyPort.(string); isText {
			if number, err := strconv.Atoi(text); err == nil {
				ref.portNumber = number
			} else {
				ref.portName = text
			}
		}
	}

	if ref.name == "" {
		return ref, ref.refError(ReasonInvalidBackend, "path backend has no service name")
	}

	if ref.portNumber <= 0 && ref.portName == "" {
		return ref, ref.refError(ReasonInvalidBackend,
			fmt.Sprintf("backend Service %s/%s has no port", ref.namespace, ref.name))
	}

	return ref, nil
}

func nestedValue(obj map[string]any, fields ...string) any {
	value, found, err := unstructured.NestedFieldNoCopy(obj, fields...)
	if err != nil || !found {
		return nil
	}

	return value
}

// toInt accepts the numeric types produced by YAML, JSON and the unstructured converter.
func toInt(value any) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case int32:
		return int(typed), true
	case int64:
		return int(typed), true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}
