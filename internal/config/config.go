// Package config resolves the run configuration from flags, environment
// variables and an optional config file.
package config

import (
	"maps"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/lexfrei/nginx-ingress-rewriter/internal/backend"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/output"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/pipeline"
	"github.com/lexfrei/nginx-ingress-rewriter/internal/rewriter"
)

// Keys shared by flags, environment variables and config files.
const (
	KeyIngressTypes    = "ingress-types"
	KeyClusterDomain   = "cluster-domain"
	KeyOutput          = "output"
	KeyWorkers         = "workers"
	KeyResolveServices = "resolve-services"
	KeyMetricsFile     = "metrics-file"
	KeyPrevious        = "previous"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
)

// EnvPrefix prefixes every environment variable, e.g. NIR_CLUSTER_DOMAIN.
const EnvPrefix = "NIR"

// Config holds all options of one rewrite run.
type Config struct {
	// Files are manifest files or directories to read.
	Files []string

	// IngressTypes maps custom ingress class names to dialect names.
	IngressTypes map[string]string

	// ClusterDomain is the Kubernetes cluster domain for service DNS names.
	ClusterDomain string

	// Output is the routing entry format (yaml, json).
	Output string

	// Workers bounds concurrent manifest rewrites.
	Workers int

	// ResolveServices looks Services up in the live cluster to resolve
	// ExternalName services and named ports.
	ResolveServices bool

	// MetricsFile receives the run metrics in Prometheus text format.
	MetricsFile string

	// Previous is an earlier output file to report changes against.
	Previous string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyClusterDomain, backend.DefaultClusterDomain)
	v.SetDefault(KeyOutput, output.FormatYAML)
	v.SetDefault(KeyWorkers, pipeline.DefaultWorkers)
	v.SetDefault(KeyResolveServices, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
}

// BindEnv makes v read NIR_* environment variables, with dashes in keys
// replaced by underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// FromViper builds a validated Config from v and the positional file args.
func FromViper(v *viper.Viper, files []string) (*Config, error) {
	ingressTypes, err := ingressTypesFrom(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Files:           files,
		IngressTypes:    ingressTypes,
		ClusterDomain:   v.GetString(KeyClusterDomain),
		Output:          v.GetString(KeyOutput),
		Workers:         v.GetInt(KeyWorkers),
		ResolveServices: v.GetBool(KeyResolveServices),
		MetricsFile:     v.GetString(KeyMetricsFile),
		Previous:        v.GetString(KeyPrevious),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first invalid option.
//
//nolint:wrapcheck // errors.Newf creates new errors
func (c *Config) Validate() error {
	if len(c.Files) == 0 {
		return errors.New("at least one manifest file or directory is required")
	}

	if !slices.Contains(output.Formats(), c.Output) {
		return errors.Newf("unsupported output format %q (supported: %s)",
			c.Output, strings.Join(output.Formats(), ", "))
	}

	if c.Workers < 1 {
		return errors.Newf("workers must be at least 1, got %d", c.Workers)
	}

	for _, class := range slices.Sorted(maps.Keys(c.IngressTypes)) {
		if class == "" || c.IngressTypes[class] == "" {
			return errors.Newf("invalid ingress type mapping %q=%q", class, c.IngressTypes[class])
		}
	}

	return nil
}

// RewriterConfig returns the part of the configuration dialects read.
func (c *Config) RewriterConfig() rewriter.Config {
	ingressTypes := maps.Clone(c.IngressTypes)
	if ingressTypes == nil {
		ingressTypes = map[string]string{}
	}

	return rewriter.Config{IngressTypes: ingressTypes}
}

// ingressTypesFrom reads the class mapping. Config files provide a map, flags
// and environment variables provide "class=dialect" pairs.
func ingressTypesFrom(v *viper.Viper) (map[string]string, error) {
	raw := v.Get(KeyIngressTypes)

	switch value := raw.(type) {
	case nil:
		return map[string]string{}, nil
	case string:
		return ParseMapping(value)
	case []string:
		return ParseMapping(strings.Join(value, ","))
	default:
		return v.GetStringMapString(KeyIngressTypes), nil
	}
}

// ParseMapping parses "a=b,c=d" into a map. Blank input is an empty map.
func ParseMapping(value string) (map[string]string, error) {
	result := map[string]string{}

	value = strings.TrimSpace(strings.Trim(strings.TrimSpace(value), "[]"))
	if value == "" {
		return result, nil
	}

	for pair := range strings.SplitSeq(value, ",") {
		key, val, found := strings.Cut(pair, "=")
		if !found {
			return nil, errors.Newf("invalid mapping %q: expected class=dialect", pair)
		}

		result[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}

	return result, nil
}
