package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	titleScanLines = 10
	maxLineTitle   = 100
)

var (
	htmlTitleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	commentTitleRe = regexp.MustCompile(`(?i)^\s*(?://+|#+|--|;+|/\*+|\*+|<!--)\s*@?title\s*:\s*(.+?)\s*(?:\*/|-->)?\s*$`)
	spaceRe        = regexp.MustCompile(`\s+`)
)

// DeriveTitle picks a display title for a text file. Candidates in order:
// HTML <title>, Markdown heading, a "title:" comment marker, a structured
// title field (.json, .yaml), the first short line, and finally the name.
func DeriveTitle(content, ext, name string) string {
	if m := htmlTitleRe.FindStringSubmatch(content); m != nil {
		if t := collapse(m[1]); t != "" {
			return t
		}
	}

	lines := headLines(content, titleScanLines)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		// "# title: x" is a comment marker, handled below.
		if strings.HasPrefix(trimmed, "# ") && !commentTitleRe.MatchString(trimmed) {
			if t := strings.TrimSpace(trimmed[2:]); t != "" {
				return t
			}
		}
	}

	for _, line := range lines {
		if m := commentTitleRe.FindStringSubmatch(line); m != nil {
			if t := strings.TrimSpace(m[1]); t != "" {
				return t
			}
		}
	}

	if t := structuredTitle(content, ext); t != "" {
		return t
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len([]rune(trimmed)) < maxLineTitle {
			return trimmed
		}
		break
	}

	return name
}

// structuredTitle reads title, name or displayName from a JSON or YAML
// document. Parse errors fall through silently.
func structuredTitle(content, ext string) string {
	var doc map[string]any
	switch ext {
	case ".json":
		if err := json.Unmarshal([]byte(content), &doc); err != nil {
			return ""
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
			return ""
		}
	default:
		return ""
	}
	for _, key := range []string{"title", "name", "displayName"} {
		if s, ok := doc[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func headLines(content string, n int) []string {
	lines := strings.SplitN(content, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
