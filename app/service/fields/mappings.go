package fields

// Synonym tables keyed by language, values are the canonical English terms.

var categoryMap = map[string]map[string]string{
	"en": {
		"shipping": "shipping",
		"billing":  "billing",
		"product":  "product",
	},
	"es": {
		"envío":       "shipping",
		"facturación": "billing",
		"producto":    "product",
	},
}

var urgencyMap = map[string]map[string]string{
	"en": {
		"low":    "low",
		"medium": "medium",
		"high":   "high",
	},
	"es": {
		"baja":  "low",
		"media": "medium",
		"alta":  "high",
	},
}
