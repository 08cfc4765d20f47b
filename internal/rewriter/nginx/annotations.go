package nginx

// AnnotationPrefix is the ingress-nginx vendor annotation prefix.
const AnnotationPrefix = "nginx.ingress.kubernetes.io/"

// Annotations translated by the rewrite engine.
const (
	RewriteTargetAnnotation        = AnnotationPrefix + "rewrite-target"
	BackendProtocolAnnotation      = AnnotationPrefix + "backend-protocol"
	EnableCORSAnnotation           = AnnotationPrefix + "enable-cors"
	CORSAllowOriginAnnotation      = AnnotationPrefix + "cors-allow-origin"
	CORSAllowMethodsAnnotation     = AnnotationPrefix + "cors-allow-methods"
	CORSAllowHeadersAnnotation     = AnnotationPrefix + "cors-allow-headers"
	ConfigurationSnippetAnnotation = AnnotationPrefix + "configuration-snippet"
	ProxyBodySizeAnnotation        = AnnotationPrefix + "proxy-body-size"
)

// CORS defaults, matching the ingress-nginx controller defaults.
const (
	DefaultCORSAllowOrigin  = "*"
	DefaultCORSAllowMethods = "GET, PUT, POST, DELETE, PATCH, OPTIONS"
	DefaultCORSAllowHeaders = "DNT,X-CustomHeader,Keep-Alive,User-Agent," +
		"X-Requested-With,If-Modified-Since,Cache-Control,Content-Type,Authorization"
)

const (
	backendProtocolHTTPS = "HTTPS"
	enabledValue         = "true"

	// unlimitedBodySize disables the body size check in ingress-nginx.
	unlimitedBodySize = "0"
)

// valueOr returns the annotation value, or def when the annotation is absent.
func valueOr(annotations map[string]string, key, def string) string {
	if value, ok := annotations[key]; ok {
		return value
	}

	return def
}
