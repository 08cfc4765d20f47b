package rewriter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
)

// stubRewriter matches objects carrying its name as a label.
type stubRewriter struct {
	name string
}

func (s stubRewriter) Name() string { return s.name }

func (s stubRewriter) Match(obj *unstructured.Unstructured, _ *rewriter.Context) bool {
	return obj != nil && obj.GetLabels()["dialect"] == s.name
}

func (s stubRewriter) Rewrite(context.Context, *unstructured.Unstructured, *rewriter.Context) ([]rewriter.RoutingEntry, error) {
	return nil, nil
}

func labelled(dialect string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{}}
	obj.SetLabels(map[string]string{"dialect": dialect})

	return obj
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	registry, err := rewriter.NewRegistry(stubRewriter{name: "nginx"}, stubRewriter{name: "traefik"})
	require.NoError(t, err)

	assert.Equal(t, []string{"nginx", "traefik"}, registry.Names())

	rw, ok := registry.Get("traefik")
	require.True(t, ok)
	assert.Equal(t, "traefik", rw.Name())

	_, ok = registry.Get("haproxy")
	assert.False(t, ok)
}

func TestRegistry_RegisterRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rewriter rewriter.Rewriter
	}{
		{name: "nil rewriter", rewriter: nil},
		{name: "empty name", rewriter: stubRewriter{name: ""}},
		{name: "duplicate", rewriter: stubRewriter{name: "nginx"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			registry, err := rewriter.NewRegistry(stubRewriter{name: "nginx"})
			require.NoError(t, err)

			require.Error(t, registry.Register(tt.rewriter))
			assert.Equal(t, []string{"nginx"}, registry.Names())
		})
	}
}

func TestNewRegistry_Duplicate(t *testing.T) {
	t.Parallel()

	_, err := rewriter.NewRegistry(stubRewriter{name: "nginx"}, stubRewriter{name: "nginx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_ZeroValue(t *testing.T) {
	t.Parallel()

	var registry rewriter.Registry

	require.NoError(t, registry.Register(stubRewriter{name: "nginx"}))
	assert.Equal(t, []string{"nginx"}, registry.Names())
}

func TestRegistry_Dispatch(t *testing.T) {
	t.Parallel()

	registry, err := rewriter.NewRegistry(stubRewriter{name: "nginx"}, stubRewriter{name: "traefik"})
	require.NoError(t, err)

	rw, ok := registry.Dispatch(labelled("traefik"), &rewriter.Context{})
	require.True(t, ok)
	assert.Equal(t, "traefik", rw.Name())

	_, ok = registry.Dispatch(labelled("kong"), &rewriter.Context{})
	assert.False(t, ok)
}

// greedyRewriter matches everything.
type greedyRewriter struct{ stubRewriter }

func (greedyRewriter) Match(*unstructured.Unstructured, *rewriter.Context) bool { return true }

func TestRegistry_DispatchOrder(t *testing.T) {
	t.Parallel()

	registry, err := rewriter.NewRegistry(
		greedyRewriter{stubRewriter{name: "first"}},
		greedyRewriter{stubRewriter{name: "second"}},
	)
	require.NoError(t, err)

	rw, ok := registry.Dispatch(labelled("second"), nil)
	require.True(t, ok)
	assert.Equal(t, "first", rw.Name())
}

func TestContext_Log(t *testing.T) {
	t.Parallel()

	var nilContext *rewriter.Context

	assert.NotNil(t, nilContext.Log())
	assert.NotNil(t, (&rewriter.Context{}).Log())
}
