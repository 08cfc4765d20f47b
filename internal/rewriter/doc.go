// Package rewriter defines the contract between ingress controller dialects
// and the orchestrator that collects their routing entries.
//
// # Dialects
//
// A dialect is one controller's annotation vocabulary. Each dialect implements
// Rewriter:
//
//   - Name: the canonical dialect name, also the ingress class it claims
//   - Match: whether a manifest belongs to the dialect
//   - Rewrite: the manifest's host/path rules as ordered RoutingEntry values
//
// Dialects are registered in a Registry keyed by name. Dispatch picks the
// first registered dialect whose Match accepts the manifest.
//
// # Routing entries
//
// RoutingEntry is the dialect-independent form of one host+path+upstream
// mapping. Entries keep the rule/path order of the source manifest, since
// renderers apply precedence by position.
package rewriter
