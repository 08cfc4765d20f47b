package manifest

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

const decoderBufferSize = 4096

//nolint:gochecknoglobals // read-only lookup table
var manifestExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// Load decodes a multi-document YAML or JSON stream.
// Empty documents are skipped and List objects are flattened into their items.
func Load(reader io.Reader) ([]*unstructured.Unstructured, error) {
	decoder := utilyaml.NewYAMLOrJSONDecoder(bufio.NewReader(reader), decoderBufferSize)

	var objs []*unstructured.Unstructured

	for index := 0; ; index++ {
		var raw map[string]any

		err := decoder.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode document %d", index)
		}

		if len(raw) == 0 {
			continue
		}

		obj := &unstructured.Unstructured{Object: raw}

		if !obj.IsList() {
			objs = append(objs, obj)

			continue
		}

		err = obj.EachListItem(func(item runtime.Object) error {
			if u, ok := item.(*unstructured.Unstructured); ok {
				objs = append(objs, u)
			}

			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to expand list in document %d", index)
		}
	}

	return objs, nil
}

// LoadFiles loads every path in order. Directories are expanded to their
// .yaml, .yml and .json files in lexical order (not recursively).
func LoadFiles(paths ...string) ([]*unstructured.Unstructured, error) {
	var objs []*unstructured.Unstructured

	for _, path := range paths {
		files, err := expandPath(path)
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			loaded, err := loadFile(file)
			if err != nil {
				return nil, err
			}

			objs = append(objs, loaded...)
		}
	}

	return objs, nil
}

// FromIngress converts a typed Ingress to the unstructured form the rewriters read.
func FromIngress(ing *networkingv1.Ingress) (*unstructured.Unstructured, error) {
	raw, err := runtime.DefaultUnstructuredConverter.ToUnstructured(ing)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to convert Ingress %s/%s", ing.Namespace, ing.Name)
	}

	obj := &unstructured.Unstructured{Object: raw}

	if obj.GetAPIVersion() == "" {
		obj.SetAPIVersion(networkingv1.SchemeGroupVersion.String())
	}

	if obj.GetKind() == "" {
		obj.SetKind(KindIngress)
	}

	return obj, nil
}

func expandPath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", path)
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir() || !manifestExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		files = append(files, filepath.Join(path, entry.Name()))
	}

	return files, nil
}

func loadFile(path string) ([]*unstructured.Unstructured, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	objs, err := Load(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}

	return objs, nil
}
