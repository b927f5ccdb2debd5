package utils

import "strings"

func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "*****"
	}
	return s[:4] + "*****"
}

// MaskEmail keeps the first character of the local part and the domain: `j*****@example.com`.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return MaskSecret(email)
	}
	return local[:1] + "*****@" + domain
}
