package mysql

import "strings"

// quote wraps an identifier in backticks
func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func placeholder(int) string { return "?" }
