package validators

import "strings"

// BearerToken extracts the credential from an Authorization header. The
// second result is false when the header is missing or not a bearer scheme.
func BearerToken(header string) (string, bool) {
	token := strings.TrimSpace(header)
	if token == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return "", false
	}
	token = strings.TrimSpace(token[7:])
	if token == "" {
		return "", false
	}
	return token, true
}
