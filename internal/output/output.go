// Package output serializes routing entries for downstream configuration
// generators and compares them against a previous run.
package output

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"sigs.k8s.io/yaml"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
)

// Supported output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatYAML, FormatJSON}
}

// Write encodes entries to w. An empty entry list is written as an empty list,
// never as null.
func Write(w io.Writer, entries []rewriter.RoutingEntry, format string) error {
	if entries == nil {
		entries = []rewriter.RoutingEntry{}
	}

	var (
		data []byte
		err  error
	)

	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(entries)
	case FormatJSON:
		data, err = json.MarshalIndent(entries, "", "  ")
		data = append(data, '\n')
	default:
		return errors.Newf("unsupported output format %q", format)
	}

	if err != nil {
		return errors.Wrapf(err, "failed to encode routing entries as %s", format)
	}

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write routing entries")
	}

	return nil
}

// Read decodes entries previously produced by Write. Both formats are
// accepted since JSON is valid YAML.
func Read(r io.Reader) ([]rewriter.RoutingEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read routing entries")
	}

	var entries []rewriter.RoutingEntry

	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to decode routing entries")
	}

	return entries, nil
}
