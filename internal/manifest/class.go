package manifest

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// IngressClassAnnotation is the legacy annotation selecting an ingress controller.
const IngressClassAnnotation = "kubernetes.io/ingress.class"

// IngressClass returns the effective ingress class of obj.
//
// spec.ingressClassName wins over the legacy annotation. The raw class is then
// looked up in ingressTypes, which maps custom class names (for example
// "nginx-internal") to a canonical dialect name. Unmapped classes are returned
// unchanged, and "" means the manifest declares no class.
func IngressClass(obj *unstructured.Unstructured, ingressTypes map[string]string) string {
	if obj == nil {
		return ""
	}

	class, _, _ := unstructured.NestedString(obj.Object, "spec", "ingressClassName")
	if class == "" {
		class = Annotations(obj)[IngressClassAnnotation]
	}

	if class == "" {
		return ""
	}

	if mapped, ok := ingressTypes[class]; ok {
		return mapped
	}

	return class
}
