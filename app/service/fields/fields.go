package fields

import "strings"

const (
	KeyOrderNumber = "order_number"
	KeyCategory    = "category"
	KeyDescription = "description"
	KeyUrgency     = "urgency"
)

// RequiredKeys is the fixed set of ticket fields, in extraction order.
var RequiredKeys = []string{KeyOrderNumber, KeyCategory, KeyDescription, KeyUrgency}

const minDescriptionLen = 10

// Validate checks a raw field value and returns its normalized English form.
// Valid values normalize as follows: order numbers uppercase, categories and
// urgencies map to their canonical value via the per-language synonym table,
// descriptions lowercase. Unknown field names are always invalid.
func Validate(field, text, lang string) (bool, string) {
	text = strings.ToLower(strings.TrimSpace(text))

	switch field {
	case KeyOrderNumber:
		if isOrderNumber(text) {
			return true, strings.ToUpper(text)
		}
		return false, ""

	case KeyCategory:
		if value, ok := categoryMap[lang][text]; ok {
			return true, value
		}
		return false, ""

	case KeyUrgency:
		if value, ok := urgencyMap[lang][text]; ok {
			return true, value
		}
		return false, ""

	case KeyDescription:
		if len(text) > minDescriptionLen {
			return true, text
		}
		return false, ""
	}

	return false, ""
}

// FormatExtracted renders collected fields in required-key order, for prompt
// substitution. Deterministic so notes stay stable across turns.
func FormatExtracted(extracted map[string]string) string {
	var parts []string

	for _, key := range RequiredKeys {
		if value, ok := extracted[key]; ok {
			parts = append(parts, key+"="+value)
		}
	}

	if len(parts) == 0 {
		return "(nothing yet)"
	}

	return strings.Join(parts, ", ")
}

// Missing lists the required keys not yet present, in required-key order.
func Missing(extracted map[string]string) []string {
	var missing []string

	for _, key := range RequiredKeys {
		if _, ok := extracted[key]; !ok {
			missing = append(missing, key)
		}
	}

	return missing
}

// isOrderNumber matches "ord" followed by one or more decimal digits.
func isOrderNumber(text string) bool {
	if !strings.HasPrefix(text, "ord") {
		return false
	}

	digits := text[3:]
	if digits == "" {
		return false
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
