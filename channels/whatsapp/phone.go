package whatsapp

import "strings"

// CleanPhone deja solo los dígitos del número (la Cloud API no acepta
// "+", espacios ni guiones en el campo `to`)
func CleanPhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone presenta el número en formato internacional legible
func FormatPhone(phone string) string {
	digits := CleanPhone(phone)
	if digits == "" {
		return ""
	}
	return "+" + digits
}
