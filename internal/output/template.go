package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/hunt/internal/walker"
)

// ExpandPlaceholders is the pure function over (template, path) called out
// in Design Notes as the module shared by per-result and batched exec: it
// substitutes the placeholders from spec §4.3 with no shell interpretation.
func ExpandPlaceholders(template, path string) string {
	base := filepath.Base(path)
	dir := filepath.Dir(path)
	ext := filepath.Ext(base)
	baseNoExt := strings.TrimSuffix(base, ext)
	pathNoExt := strings.TrimSuffix(path, ext)

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			b.WriteByte(template[i])
			continue
		}
		switch {
		case strings.HasPrefix(template[i:], "{/.}"):
			b.WriteString(baseNoExt)
			i += 3
		case strings.HasPrefix(template[i:], "{//}"):
			b.WriteString(dir)
			i += 3
		case strings.HasPrefix(template[i:], "{.}"):
			b.WriteString(pathNoExt)
			i += 2
		case strings.HasPrefix(template[i:], "{/}"):
			b.WriteString(base)
			i += 2
		case strings.HasPrefix(template[i:], "{}"):
			b.WriteString(path)
			i++
		default:
			b.WriteByte(template[i])
		}
	}
	return b.String()
}

func expandTemplate(template string, e *walker.Entry, renderedPath string) string {
	return ExpandPlaceholders(template, renderedPath)
}

func hyperlink(absPath, rendered string) string {
	return fmt.Sprintf("\x1b]8;;file://%s\x1b\\%s\x1b]8;;\x1b\\", absPath, rendered)
}

// HasPlaceholder reports whether template contains any of the recognized
// placeholders, used to decide whether an implicit {} must be appended.
func HasPlaceholder(template string) bool {
	for _, p := range []string{"{}", "{.}", "{/}", "{//}", "{/.}"} {
		if strings.Contains(template, p) {
			return true
		}
	}
	return false
}
