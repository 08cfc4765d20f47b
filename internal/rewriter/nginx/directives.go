package nginx

import (
	"fmt"
	"strings"
)

const moreSetHeaders = "more_set_headers"

// headerDirective quotes value, escaping only embedded double quotes.
func headerDirective(name, value string) string {
	return fmt.Sprintf(`header %s "%s"`, name, strings.ReplaceAll(value, `"`, `\"`))
}

// corsDirectives returns the three Access-Control-Allow-* headers when
// enable-cors is "true" (any case).
func corsDirectives(annotations map[string]string) []string {
	if !strings.EqualFold(annotations[EnableCORSAnnotation], enabledValue) {
		return nil
	}

	return []string{
		headerDirective("Access-Control-Allow-Origin",
			valueOr(annotations, CORSAllowOriginAnnotation, DefaultCORSAllowOrigin)),
		headerDirective("Access-Control-Allow-Methods",
			valueOr(annotations, CORSAllowMethodsAnnotation, DefaultCORSAllowMethods)),
		headerDirective("Access-Control-Allow-Headers",
			valueOr(annotations, CORSAllowHeadersAnnotation, DefaultCORSAllowHeaders)),
	}
}

// snippetHeaders extracts `more_set_headers "Name: value";` lines from a
// configuration snippet. Everything else in the snippet is ignored.
func snippetHeaders(snippet string) []string {
	var directives []string

	for _, line := range strings.Split(snippet, "\n") {
		name, value, ok := parseMoreSetHeaders(line)
		if ok {
			directives = append(directives, headerDirective(name, value))
		}
	}

	return directives
}

// parseMoreSetHeaders parses one snippet line. Only the single-header,
// single-quoted-string form is understood.
func parseMoreSetHeaders(line string) (string, string, bool) {
	line = strings.TrimRight(strings.TrimSpace(line), ";")

	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != moreSetHeaders {
		return "", "", false
	}

	header := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	header = strings.Trim(header, `"' `)

	name, value, found := strings.Cut(header, ":")
	if !found {
		return "", "", false
	}

	return strings.TrimSpace(name), strings.TrimSpace(value), true
}

// bodySizeDirective passes proxy-body-size through unless it is absent,
// empty or "0" (unlimited).
func bodySizeDirective(annotations map[string]string) []string {
	size := annotations[ProxyBodySizeAnnotation]
	if size == "" || size == unlimitedBodySize {
		return nil
	}

	return []string{"request_body max_size " + size}
}
