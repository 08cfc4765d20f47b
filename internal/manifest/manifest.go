package manifest

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	// KindIngress is the kind of the objects the rewriters consume.
	KindIngress = "Ingress"

	// DefaultNamespace is assumed for objects rendered without a namespace.
	DefaultNamespace = "default"

	// DefaultPath is used for Ingress path entries without a path.
	DefaultPath = "/"
)

// IsIngress reports whether obj is an Ingress of any API version.
func IsIngress(obj *unstructured.Unstructured) bool {
	return obj != nil && obj.GetKind() == KindIngress
}

// Ingresses filters objs down to Ingress objects, preserving order.
func Ingresses(objs []*unstructured.Unstructured) []*unstructured.Unstructured {
	result := make([]*unstructured.Unstructured, 0, len(objs))

	for _, obj := range objs {
		if IsIngress(obj) {
			result = append(result, obj)
		}
	}

	return result
}

// Namespace returns the object namespace, or DefaultNamespace when unset.
func Namespace(obj *unstructured.Unstructured) string {
	if obj == nil || obj.GetNamespace() == "" {
		return DefaultNamespace
	}

	return obj.GetNamespace()
}

// Key returns "namespace/name" for log and error messages.
func Key(obj *unstructured.Unstructured) string {
	if obj == nil {
		return ""
	}

	return fmt.Sprintf("%s/%s", Namespace(obj), obj.GetName())
}

// Annotations returns metadata.annotations as a string map.
// Scalar values that are not strings (an unquoted `true` or `0` in YAML) are
// formatted with fmt; nested values are dropped. Never returns nil.
func Annotations(obj *unstructured.Unstructured) map[string]string {
	result := map[string]string{}

	if obj == nil {
		return result
	}

	raw, found, err := unstructured.NestedFieldNoCopy(obj.Object, "metadata", "annotations")
	if err != nil || !found {
		return result
	}

	annotations, ok := raw.(map[string]any)
	if !ok {
		return result
	}

	for key, value := range annotations {
		switch typed := value.(type) {
		case string:
			result[key] = typed
		case bool, int, int32, int64:
			result[key] = fmt.Sprint(typed)
		case float64:
			result[key] = strconv.FormatFloat(typed, 'f', -1, 64)
		}
	}

	return result
}

// Rules returns spec.rules in manifest order. Items that are not objects are skipped.
func Rules(obj *unstructured.Unstructured) []map[string]any {
	if obj == nil {
		return nil
	}

	raw, found, err := unstructured.NestedFieldNoCopy(obj.Object, "spec", "rules")
	if err != nil || !found {
		return nil
	}

	return objectList(raw)
}

// Host returns the rule host, or "" when absent.
func Host(rule map[string]any) string {
	host, _ := rule["host"].(string)

	return host
}

// Paths returns the rule's http.paths in manifest order.
func Paths(rule map[string]any) []map[string]any {
	raw, found, err := unstructured.NestedFieldNoCopy(rule, "http", "paths")
	if err != nil || !found {
		return nil
	}

	return objectList(raw)
}

// PathOf returns the path of an Ingress path entry, DefaultPath when absent.
func PathOf(entry map[string]any) string {
	raw, found := entry["path"]
	if !found || raw == nil {
		return DefaultPath
	}

	path, ok := raw.(string)
	if !ok {
		return DefaultPath
	}

	return path
}

func objectList(raw any) []map[string]any {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	result := make([]map[string]any, 0, len(items))

	for _, item := range items {
		if object, isObject := item.(map[string]any); isObject {
			result = append(result, object)
		}
	}

	return result
}
