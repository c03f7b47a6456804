package logger

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// Google API keys, Anthropic/OpenAI style keys, AWS access key IDs.
	tokenRegex = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}|sk-[0-9A-Za-z_\-]{16,}|AKIA[0-9A-Z]{16}`)
	// key=value pairs inside URLs and DSNs.
	queryRegex = regexp.MustCompile(`(?i)((?:key|token|password|secret)=)[^&\s]+`)
)

var secretKeys = []string{"key", "secret", "token", "password", "dsn", "credential"}

func redactValue(key, val string) string {
	k := strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(k, s) {
			return RedactSecret(val)
		}
	}
	val = tokenRegex.ReplaceAllStringFunc(val, RedactSecret)
	val = queryRegex.ReplaceAllString(val, "${1}***")
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}

// RedactSecret keeps the first four characters of a credential.
// "AIzaSyD-example" → "AIza***"; values of four characters or fewer become "***".
func RedactSecret(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}
