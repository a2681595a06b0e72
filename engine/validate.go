package engine

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/chatflow-io/chatflow/flow"
)

// ============================================================================
// Input Validation
// ============================================================================

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s-]{10,}$`)
)

// ValidationResult resultado de validar una respuesta del contacto
type ValidationResult struct {
	Valid   bool
	Message string
}

func valid() ValidationResult {
	return ValidationResult{Valid: true}
}

func invalid(message string) ValidationResult {
	return ValidationResult{Valid: false, Message: message}
}

// ValidateInput valida la entrada según el tipo configurado en ask_question.
// Empty input and unknown validation types pass through unvalidated.
func ValidateInput(input string, validationType flow.ValidationType) ValidationResult {
	if input == "" || validationType == "" || validationType == flow.ValidationNone {
		return valid()
	}

	trimmed := strings.TrimSpace(input)

	switch validationType {
	case flow.ValidationText:
		if len(trimmed) > 0 {
			return valid()
		}
		return invalid("Please enter some text")

	case flow.ValidationEmail:
		if emailPattern.MatchString(trimmed) {
			return valid()
		}
		return invalid("Please enter a valid email address")

	case flow.ValidationPhone:
		if phonePattern.MatchString(trimmed) {
			return valid()
		}
		return invalid("Please enter a valid phone number")

	case flow.ValidationNumber:
		if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return valid()
		}
		return invalid("Please enter a valid number")

	case flow.ValidationURL:
		if u, err := url.Parse(trimmed); err == nil && u.Scheme != "" && u.Host != "" {
			return valid()
		}
		return invalid("Please enter a valid URL")

	default:
		return valid()
	}
}
