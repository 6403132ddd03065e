package flake

import (
	"regexp"
	"strings"
)

// Marker tokens are matched by substring containment, not full-line
// equality, and unbalanced open/close pairs are tolerated rather than
// rejected: an end token before any start token, or an unterminated
// section, silently yields an empty or partial section. Callers only ever
// feed these functions files nixy itself once wrote.

func openToken(marker string) string  { return "# [" + marker + "]" }
func closeToken(marker string) string { return "# [/" + marker + "]" }

// HasMarker reports whether the opening token for marker appears anywhere.
func HasMarker(content, marker string) bool {
	return strings.Contains(content, openToken(marker))
}

// InsertAfterMarker inserts line after every line containing the opening
// token for marker. All other lines and the trailing-newline convention of
// the input are preserved.
func InsertAfterMarker(content, marker, line string) string {
	token := openToken(marker)

	var b strings.Builder
	for _, contentLine := range splitLines(content) {
		b.WriteString(contentLine)
		b.WriteByte('\n')
		if strings.Contains(contentLine, token) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return trimTrailingNewlineLike(content, b.String())
}

// RemoveFromSection drops lines matching pattern, but only between the
// opening and closing tokens for marker. Marker lines themselves and
// everything outside the section are never dropped.
func RemoveFromSection(content, marker string, pattern *regexp.Regexp) string {
	start := openToken(marker)
	end := closeToken(marker)

	var b strings.Builder
	inSection := false
	for _, line := range splitLines(content) {
		if strings.Contains(line, start) {
			inSection = true
		}
		if strings.Contains(line, end) {
			inSection = false
		}
		if inSection && pattern.MatchString(line) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return trimTrailingNewlineLike(content, b.String())
}

// ExtractSection returns the lines strictly between the opening and closing
// tokens for marker, excluding the marker lines.
func ExtractSection(content, marker string) string {
	start := openToken(marker)
	end := closeToken(marker)

	var b strings.Builder
	inSection := false
	for _, line := range splitLines(content) {
		if strings.Contains(line, end) {
			inSection = false
			continue
		}
		if inSection {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		if strings.Contains(line, start) {
			inSection = true
		}
	}
	return b.String()
}

// ExtractPackageNames collects the bound names from every managed package
// section of a marker-based flake.
func ExtractPackageNames(content string) []string {
	var names []string

	markers := []string{"nixy:packages", "nixy:local-packages", "nixy:custom-packages"}
	for _, marker := range markers {
		section := ExtractSection(content, marker)
		for _, line := range splitLines(section) {
			trimmed := strings.TrimSpace(line)
			eq := strings.Index(trimmed, "=")
			if eq < 0 {
				continue
			}
			name := strings.TrimSpace(trimmed[:eq])
			if name != "" && !strings.Contains(name, ".") && isValidNixIdentifier(name) {
				names = append(names, name)
			}
		}
	}
	return names
}

func isValidNixIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case i > 0 && (c >= '0' && c <= '9' || c == '-'):
		default:
			return false
		}
	}
	return true
}

// splitLines mirrors the line iteration used everywhere in this package:
// a trailing newline does not produce a final empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(content, "\n")
	if trimmed == "" {
		return []string{""}
	}
	return strings.Split(trimmed, "\n")
}

// trimTrailingNewlineLike drops the final newline of result when the
// original content did not end with one.
func trimTrailingNewlineLike(original, result string) string {
	if !strings.HasSuffix(original, "\n") {
		return strings.TrimSuffix(result, "\n")
	}
	return result
}
