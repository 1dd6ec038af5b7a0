package utils

import (
	"strings"
)

// PreferredLocale picks "es" or "en" from an Accept-Language header.
// The site is Spanish-first, so anything unrecognized stays "es".
func PreferredLocale(header string) string {
	for _, part := range strings.Split(header, ",") {
		lang := strings.TrimSpace(part)
		if i := strings.Index(lang, ";"); i != -1 {
			lang = lang[:i]
		}
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "en" || strings.HasPrefix(lang, "en-") {
			return "en"
		}
		if lang == "es" || strings.HasPrefix(lang, "es-") {
			return "es"
		}
	}
	return "es"
}
