package router

import (
	"strings"

	"github.com/vango-dev/breadcrumbs/internal/errors"
)

// CleanPath normalizes a request path before matching.
//
// The query string is dropped, slashes are collapsed, "." segments are
// removed and ".." segments are resolved. A trailing slash is removed
// except for the root. Paths with a backslash, a NUL byte, an invalid
// percent escape or a ".." that escapes the root are rejected with B024.
func CleanPath(input string) (string, error) {
	path, _, _ := strings.Cut(input, "?")
	if path == "" {
		return "/", nil
	}

	if strings.Contains(path, "\\") {
		return "", invalidPath(input, "path contains a backslash")
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", invalidPath(input, "path contains a NUL byte")
	}
	if strings.Contains(path, "%") && !validPercentEscapes(path) {
		return "", invalidPath(input, "invalid percent escape")
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return "", invalidPath(input, "path escapes root via ..")
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}

func invalidPath(path, reason string) error {
	return errors.New("B024").WithDetailf("%s: %q", reason, path)
}

// validPercentEscapes reports whether every % is followed by two hex digits.
func validPercentEscapes(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
