package observability

import "unicode"

// Request-derived values are attacker-controlled; strip control characters and
// cap lengths before they reach a log line.

const (
	routeLimit  = 180
	methodLimit = 10
	userIDLimit = 64
)

func stripControl(value string, limit int) string {
	cleaned := make([]rune, 0, len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		cleaned = append(cleaned, r)
		if len(cleaned) == limit {
			break
		}
	}
	return string(cleaned)
}

// SanitizeRoute bounds a request path for logging.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return stripControl(route, routeLimit)
}

// SanitizeMethod bounds an HTTP method for logging.
func SanitizeMethod(method string) string {
	return stripControl(method, methodLimit)
}

// SanitizeUserID bounds a user identifier for logging.
func SanitizeUserID(userID string) string {
	return stripControl(userID, userIDLimit)
}
