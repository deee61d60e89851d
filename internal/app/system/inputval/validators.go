package inputval

import "strings"

var authMethods = []string{"password", "google"}

// IsValidAuthMethod reports whether m (case-insensitive, trimmed) is a
// supported sign-in method.
func IsValidAuthMethod(m string) bool {
	m = strings.ToLower(strings.TrimSpace(m))
	for _, v := range authMethods {
		if v == m {
			return true
		}
	}
	return false
}

// AllowedAuthMethodsList returns the supported sign-in methods in display order.
func AllowedAuthMethodsList() []string {
	out := make([]string, len(authMethods))
	copy(out, authMethods)
	return out
}
