package utils

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	codeCharsRe  = regexp.MustCompile(`[^a-z0-9-]`)
)

// GenerateCategoryCode создает код категории из названия.
// "Soporte Técnico" -> "soporte-tcnico"
func GenerateCategoryCode(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRe.ReplaceAllString(s, "-")
	return codeCharsRe.ReplaceAllString(s, "")
}
