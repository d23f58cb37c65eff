package cryptox

import "strings"

// The Mask* helpers obfuscate values for display only. Their output is
// neither unique nor stable enough for storage or lookup.

// MaskEmail turns "john.doe@example.com" into "j***e@e***e.com".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return "***@***.***"
	}

	name, tld, ok := strings.Cut(domain, ".")
	if !ok || name == "" {
		return "***@***.***"
	}

	return maskPart(local) + "@" + maskPart(name) + "." + tld
}

// MaskPhone keeps the first and last four characters: "+260977123456" -> "+260***3456".
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "***"
	}
	if len(phone) <= 8 {
		return phone[:2] + "***" + phone[len(phone)-2:]
	}
	return phone[:4] + "***" + phone[len(phone)-4:]
}

// MaskNRC hides the serial part of a national registration number:
// "123456/12/1" -> "******/12/1".
func MaskNRC(nrc string) string {
	parts := strings.Split(nrc, "/")
	if len(parts) >= 3 {
		return "******/" + parts[1] + "/" + parts[2]
	}
	return "******"
}

func maskPart(s string) string {
	if len(s) <= 2 {
		return s[:1] + "*"
	}
	return s[:1] + "***" + s[len(s)-1:]
}
