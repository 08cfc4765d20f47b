// Package nginx implements the ingress-nginx dialect.
//
// # Matching
//
// A manifest belongs to the dialect when its ingress class resolves to
// "nginx" (after the ingressTypes mapping), or when any annotation key starts
// with "nginx.ingress.kubernetes.io/".
//
// # Translated annotations
//
//   - backend-protocol: HTTPS (any case) selects the https upstream scheme
//   - rewrite-target: "/$1" or "/\1" on a path ending in a (.*), (.?) or (*)
//     group strips the path prefix before the group
//   - enable-cors, cors-allow-origin, cors-allow-methods, cors-allow-headers
//   - configuration-snippet: more_set_headers lines only
//   - proxy-body-size: request body limit, passed through verbatim
//
// Every other annotation is ignored. No annotation value can make Rewrite
// fail; absent or malformed values fall back to the documented defaults.
//
// # Directive syntax
//
// Extra directives use Caddyfile syntax:
//
//	header Access-Control-Allow-Origin "*"
//	request_body max_size 10m
package nginx
