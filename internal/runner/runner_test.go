package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/config"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/runner"
)

const shopIngress = `apiVersion: networking.k8s.io/v1
kind: Ingress
metadata:
  name: shop
  namespace: shop
  annotations:
    kubernetes.io/ingress.class: internal
    nginx.ingress.kubernetes.io/enable-cors: "true"
spec:
  rules:
  - host: shop.example.com
    http:
      paths:
      - path: /
        backend:
          service:
            name: storefront
            port:
              name: http
`

const traefikIngress = `apiVersion: networking.k8s.io/v1
kind: Ingress
metadata:
  name: dashboard
spec:
  ingressClassName: traefik
  rules:
  - host: dashboard.example.com
`

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func fakeClientFactory(objs ...client.Object) runner.ClientFactory {
	return func() (client.Reader, error) {
		scheme := runtime.NewScheme()
		utilruntime.Must(clientgoscheme.AddToScheme(scheme))

		return fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build(), nil
	}
}

func decodeEntries(t *testing.T, data []byte) []rewriter.RoutingEntry {
	t.Helper()

	var entries []rewriter.RoutingEntry
	require.NoError(t, json.Unmarshal(data, &entries))

	return entries
}

func TestRun_ResolvesServicesAgainstCluster(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, "shop.yaml", shopIngress)
	writeManifest(t, dir, "traefik.yaml", traefikIngress)

	storefront := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "storefront", Namespace: "shop"},
		Spec: corev1.ServiceSpec{
			Ports: []corev1.ServicePort{{Name: "http", Port: 8080}},
		},
	}

	var out bytes.Buffer

	r := &runner.Runner{Out: &out, NewClient: fakeClientFactory(storefront)}
	cfg := &config.Config{
		Files:           []string{dir},
		IngressTypes:    map[string]string{"internal": "nginx"},
		ClusterDomain:   "cluster.local",
		Output:          "json",
		Workers:         2,
		ResolveServices: true,
	}

	require.NoError(t, r.Run(context.Background(), cfg))

	entries := decodeEntries(t, out.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "shop.example.com", entries[0].Host)
	assert.Equal(t, "storefront.shop.svc.cluster.local:8080", entries[0].Upstream)
	assert.Len(t, entries[0].ExtraDirectives, 3)
}

func TestRun_NamedPortWithoutClusterFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, "shop.yaml", shopIngress)

	var out bytes.Buffer

	r := &runner.Runner{Out: &out}
	cfg := &config.Config{
		Files:        []string{dir},
		IngressTypes: map[string]string{"internal": "nginx"},
		Output:       "yaml",
		Workers:      1,
	}

	err := r.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shop/shop")
	assert.Zero(t, out.Len())
}

func TestRun_ClientFactoryError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, "shop.yaml", shopIngress)

	r := &runner.Runner{
		Out: &bytes.Buffer{},
		NewClient: func() (client.Reader, error) {
			return nil, errors.New("no kubeconfig")
		},
	}

	err := r.Run(context.Background(), &config.Config{
		Files:           []string{dir},
		Output:          "yaml",
		Workers:         1,
		ResolveServices: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no kubeconfig")
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	r := &runner.Runner{Out: &bytes.Buffer{}}

	err := r.Run(context.Background(), &config.Config{
		Files:   []string{filepath.Join(t.TempDir(), "missing.yaml")},
		Output:  "yaml",
		Workers: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load manifests")
}

func TestRun_WritesMetricsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "dashboard.yaml", traefikIngress)
	metricsPath := filepath.Join(dir, "rewriter.prom")

	var out bytes.Buffer

	r := &runner.Runner{Out: &out}
	require.NoError(t, r.Run(context.Background(), &config.Config{
		Files:       []string{manifestPath},
		Output:      "json",
		Workers:     1,
		MetricsFile: metricsPath,
	}))

	assert.Equal(t, "[]\n", out.String())

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ingress_rewriter_unmatched_manifests_total 1")
}

func TestRun_ComparesWithPreviousOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "web.yaml", `apiVersion: networking.k8s.io/v1
kind: Ingress
metadata:
  name: web
  annotations:
    nginx.ingress.kubernetes.io/proxy-body-size: 1m
spec:
  rules:
  - host: web.example.com
    http:
      paths:
      - backend:
          service:
            name: web
            port:
              number: 80
`)
	previousPath := writeManifest(t, dir, "previous.json", `[
  {"host": "old.example.com", "path": "/", "upstream": "old.default.svc.cluster.local:80", "scheme": "http"}
]`)

	var out bytes.Buffer

	r := &runner.Runner{Out: &out}
	require.NoError(t, r.Run(context.Background(), &config.Config{
		Files:    []string{manifestPath},
		Output:   "json",
		Workers:  1,
		Previous: previousPath,
	}))

	assert.Equal(t, []rewriter.RoutingEntry{{
		Host:            "web.example.com",
		Path:            "/",
		Upstream:        "web.default.svc.cluster.local:80",
		Scheme:          "http",
		ExtraDirectives: []string{"request_body max_size 1m"},
	}}, decodeEntries(t, out.Bytes()))
}

func TestRun_MissingPreviousOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "dashboard.yaml", traefikIngress)

	r := &runner.Runner{Out: &bytes.Buffer{}}

	err := r.Run(context.Background(), &config.Config{
		Files:    []string{manifestPath},
		Output:   "json",
		Workers:  1,
		Previous: filepath.Join(dir, "missing.json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "previous output")
}
