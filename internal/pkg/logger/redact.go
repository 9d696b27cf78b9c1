package logger

import "strings"

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

// RedactName masks a person's name, keeping only initials.
// "Jane Doe" → "J*** D***"
func RedactName(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	masked := make([]string, len(words))
	for i, w := range words {
		masked[i] = w[:1] + "***"
	}
	return strings.Join(masked, " ")
}
