package output_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/output"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
)

var sampleEntries = []rewriter.RoutingEntry{
	{
		Host:            "a.example.com",
		Path:            "/api/(.*)",
		Upstream:        "api.shop.svc.cluster.local:8443",
		Scheme:          rewriter.SchemeHTTPS,
		StripPrefix:     "/api",
		ExtraDirectives: []string{`header X-Frame-Options "DENY"`, "request_body max_size 8m"},
	},
	{
		Host:     "b.example.com",
		Path:     "/",
		Upstream: "web.default.svc.cluster.local:80",
		Scheme:   rewriter.SchemeHTTP,
	},
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, output.Write(&buf, sampleEntries[1:], output.FormatJSON))

	expected := `[
  {
    "host": "b.example.com",
    "path": "/",
    "upstream": "web.default.svc.cluster.local:80",
    "scheme": "http"
  }
]
`
	assert.Equal(t, expected, buf.String())
}

func TestWrite_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, output.Write(&buf, sampleEntries, output.FormatYAML))

	text := buf.String()
	assert.Contains(t, text, "host: a.example.com")
	assert.Contains(t, text, "strip_prefix: /api")
	assert.Contains(t, text, "scheme: https")
	assert.Contains(t, text, "request_body max_size 8m")
	assert.Equal(t, 1, strings.Count(text, "strip_prefix"))
	assert.Equal(t, 1, strings.Count(text, "extra_directives"))
}

func TestWrite_EmptyList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format   string
		expected string
	}{
		{format: output.FormatJSON, expected: "[]\n"},
		{format: output.FormatYAML, expected: "[]\n"},
	}

	for _, testCase := range tests {
		t.Run(testCase.format, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			require.NoError(t, output.Write(&buf, nil, testCase.format))
			assert.Equal(t, testCase.expected, buf.String())
		})
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := output.Write(&buf, sampleEntries, "toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"toml"`)
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWrite_WriterError(t *testing.T) {
	t.Parallel()

	err := output.Write(failingWriter{}, sampleEntries, output.FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRead(t *testing.T) {
	t.Parallel()

	for _, format := range output.Formats() {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			require.NoError(t, output.Write(&buf, sampleEntries, format))

			entries, err := output.Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, sampleEntries, entries)
		})
	}
}

func TestRead_Invalid(t *testing.T) {
	t.Parallel()

	_, err := output.Read(strings.NewReader("host: [unclosed\n"))
	require.Error(t, err)
}
