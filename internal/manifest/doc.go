// Package manifest loads Kubernetes manifests into unstructured objects and
// provides tolerant accessors over the Ingress fields the rewriters read.
//
// # Loading
//
// Load and LoadFiles accept multi-document YAML or JSON streams, the shape
// produced by `helm template` or `helmfile template`. Empty documents are
// skipped and List objects are flattened into their items.
//
// # Accessors
//
// The accessors never fail: a missing or malformed field reads as its zero
// value (empty annotations, no rules, no paths). Ingress path entries default
// to "/" when their path is absent.
//
// # Ingress class
//
// IngressClass resolves the effective controller class from
// spec.ingressClassName, falling back to the legacy kubernetes.io/ingress.class
// annotation, and maps it through a user-supplied table of custom class names.
package manifest
