package nginx

import (
	"regexp"
	"strings"
)

// trailingCaptureGroup matches a catch-all capture group closing the path:
// (.*), (.?) and the bare (*) form.
var trailingCaptureGroup = regexp.MustCompile(`\((?:\.\*|\.\?|\*)\)$`)

// StripPrefix derives the prefix to strip from path for a rewrite-target of
// exactly "/$1" or "/\1", which forward only the last capture group upstream.
//
// Any other rewrite-target (including multi-group targets) is not translated
// and yields "". The result is also "" when nothing but "/" precedes the group.
func StripPrefix(rewriteTarget, path string) string {
	if rewriteTarget != `/$1` && rewriteTarget != `/\1` {
		return ""
	}

	prefix := trailingCaptureGroup.ReplaceAllString(path, "")
	if prefix == "" || prefix == "/" {
		return ""
	}

	return strings.TrimRight(prefix, "/")
}
