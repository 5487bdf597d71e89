package supervisor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError marks a model reply that failed to parse as the expected
// structured payload. Callers treat it as "no change", never as fatal.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model payload %q: %v", e.Payload, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFieldMap parses a JSON object of field corrections, tolerating
// markdown code fences around it.
func ParseFieldMap(reply string) (map[string]string, error) {
	cleaned := stripFences(reply)

	var result map[string]string
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, &ParseError{Payload: reply, Err: err}
	}

	return result, nil
}

// ParseFieldList parses a JSON array of field names, tolerating markdown
// code fences around it.
func ParseFieldList(reply string) ([]string, error) {
	cleaned := stripFences(reply)

	var result []string
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, &ParseError{Payload: reply, Err: err}
	}

	return result, nil
}

func stripFences(reply string) string {
	result := strings.TrimSpace(reply)
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")

	return strings.TrimSpace(result)
}
