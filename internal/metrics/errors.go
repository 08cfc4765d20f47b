package metrics

import (
	"context"
	"errors"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Error type constants for metrics labels.
const (
	ErrorTypeBackend  = "backend"
	ErrorTypeNotFound = "not_found"
	ErrorTypeAuth     = "auth"
	ErrorTypeTimeout  = "timeout"
	ErrorTypeCanceled = "canceled"
	ErrorTypeNetwork  = "network"
	ErrorTypeUnknown  = "unknown"
)

// reasoned is implemented by domain errors that carry their own classification.
type reasoned interface {
	MetricReason() string
}

// ClassifyError classifies a rewrite run error for metrics labeling.
// Returns an empty string for nil errors.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	var withReason reasoned
	if errors.As(err, &withReason) {
		return withReason.MetricReason()
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case apierrors.IsNotFound(err):
		return ErrorTypeNotFound
	case apierrors.IsUnauthorized(err) || apierrors.IsForbidden(err):
		return ErrorTypeAuth
	case apierrors.IsTimeout(err) || apierrors.IsServerTimeout(err):
		return ErrorTypeTimeout
	}

	// Fallback for errors without structure
	return classifyByErrorMessage(err.Error())
}

func classifyByErrorMessage(errStr string) string {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline"):
		return ErrorTypeTimeout
	case strings.Contains(errLower, "connection refused") || strings.Contains(errLower, "no such host"):
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}
