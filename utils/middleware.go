package utils

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/kataras/iris/v12"
)

const defaultOperator = "recepcion"
const maxOperatorLength = 80

// AdminTokenMiddleware guards the reception endpoints with the shared
// static credential. No token configured means the admin surface is
// closed, not open.
func AdminTokenMiddleware(ctx iris.Context) {
	expected := os.Getenv("ADMIN_TOKEN")
	got := ctx.GetHeader("X-Admin-Token")
	if expected == "" || got != expected {
		ctx.StatusCode(iris.StatusUnauthorized)
		ctx.JSON(iris.Map{"error": "unauthorized", "message": "admin token required"})
		return
	}
	ctx.Next()
}

// OperatorFrom reads the free-text operator identifier used for audit
// attribution. Blank falls back to the shared desk name; oversized
// values are truncated. Not an authenticated principal, the header is
// trusted as supplied.
func OperatorFrom(ctx iris.Context) string {
	return normalizeOperator(ctx.GetHeader("X-Operator"))
}

func normalizeOperator(raw string) string {
	actor := strings.TrimSpace(raw)
	if actor == "" {
		return defaultOperator
	}
	// Truncate on runes so a multi-byte name is never split mid-rune.
	if utf8.RuneCountInString(actor) > maxOperatorLength {
		return string([]rune(actor)[:maxOperatorLength])
	}
	return actor
}
