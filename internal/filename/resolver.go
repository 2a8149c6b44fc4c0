package filename

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// fallbackBase is used when no name can be derived from the URL path.
const fallbackBase = "file"

// maxRenameAttempts bounds the numeric-suffix search in ResolvePath.
const maxRenameAttempts = 9999

// ErrNoFilename indicates the Content-Disposition header carried no usable
// filename parameter.
var ErrNoFilename = errors.New("filename: no filename in content-disposition")

// FromContentDisposition extracts the filename advertised in a
// Content-Disposition header (RFC 6266). The extended UTF-8 form is
// preferred over the legacy form. The extension of the parsed name is kept
// when it is an alias of expectedExt (jpg/jpeg are interchangeable),
// otherwise expectedExt is appended.
func FromContentDisposition(header, expectedExt string) (string, error) {
	if header == "" {
		return "", ErrNoFilename
	}

	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("parse content-disposition: %w", err)
	}

	name := params["filename"]
	if name == "" {
		return "", ErrNoFilename
	}

	_, ext := splitExt(name)
	if !aliasMatch(ext, expectedExt) {
		name += "." + expectedExt
	}

	return name, nil
}

// FromURL derives a basename from the last path segment of rawURL and
// appends expectedExt. Percent-escapes of unreserved characters are decoded
// first; everything else stays encoded.
func FromURL(rawURL, expectedExt string) string {
	decoded := unquoteUnreserved(rawURL)
	base := decoded
	if i := strings.LastIndexByte(decoded, '/'); i >= 0 {
		base = decoded[i+1:]
	}
	if base == "" {
		base = fallbackBase
	}
	return base + "." + expectedExt
}

// Sanitize replaces characters that are unsafe on mainstream filesystems
// with an underscore. Reserved Windows device names get an underscore
// appended to the stem.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), " .")
	if out == "" {
		return fallbackBase
	}

	if stem, ext := splitExt(out); isReservedName(stem) {
		if ext != "" {
			return stem + "_." + ext
		}
		return stem + "_"
	}

	return out
}

// ResolvePath joins dir and name, appending a numeric suffix before the
// extension while the target already exists. The bool is false when all
// suffixes up to maxRenameAttempts were taken; the last candidate is
// returned regardless. The existence check is not atomic: two concurrent
// callers may resolve the same path and the later write wins.
func ResolvePath(dir, name string) (string, bool) {
	target := filepath.Join(dir, name)
	if !exists(target) {
		return target, true
	}

	stem, ext := splitExt(name)
	for i := 1; i <= maxRenameAttempts; i++ {
		candidate := fmt.Sprintf("%s_%d", stem, i)
		if ext != "" {
			candidate += "." + ext
		}
		target = filepath.Join(dir, candidate)
		if !exists(target) {
			return target, true
		}
	}

	return target, false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// splitExt splits name into stem and extension (without the dot). Names
// with no dot, or only a leading dot, have no extension.
func splitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// aliasMatch reports whether parsed and expected are the same extension,
// treating jpg and jpeg as interchangeable. Case-insensitive.
func aliasMatch(parsed, expected string) bool {
	p := strings.ToLower(parsed)
	e := strings.ToLower(expected)
	if p == e {
		return true
	}
	return (p == "jpg" && e == "jpeg") || (p == "jpeg" && e == "jpg")
}

// unquoteUnreserved decodes %XX escapes whose target byte is unreserved
// per RFC 3986 (ALPHA / DIGIT / "-" / "." / "_" / "~"). Other escapes are
// left untouched.
func unquoteUnreserved(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) {
			if c, ok := unhex(s[i+1], s[i+2]); ok && isUnreserved(c) {
				b.WriteByte(c)
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func unhex(hi, lo byte) (byte, bool) {
	h, ok1 := hexVal(hi)
	l, ok2 := hexVal(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h<<4 | l, true
}

func hexVal(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

// isReservedName reports whether stem is a reserved device name on Windows.
func isReservedName(stem string) bool {
	up := strings.ToUpper(stem)
	switch up {
	case "CON", "PRN", "AUX", "NUL":
		return true
	}
	if len(up) == 4 && (strings.HasPrefix(up, "COM") || strings.HasPrefix(up, "LPT")) {
		return up[3] >= '1' && up[3] <= '9'
	}
	return false
}
