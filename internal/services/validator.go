package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"gradewise/assignment-evaluator/internal/models"
)

// ValidatorService checks a raw backend reply against the required SWOT
// key set and produces the typed report. Membership is case-sensitive
// and top-level only; value types are not enforced, so an
// {"error": ...} body from the model simply fails the key check.
type ValidatorService interface {
	ParseReport(raw string) (*models.SwotReport, error)
}

type validatorService struct{}

func NewValidatorService() ValidatorService {
	return &validatorService{}
}

// ParseReport implements ValidatorService.
func (v *validatorService) ParseReport(raw string) (*models.SwotReport, error) {
	jsonStr := extractJSON(raw)

	decoder := json.NewDecoder(strings.NewReader(jsonStr))
	decoder.UseNumber()

	var candidate map[string]interface{}
	if err := decoder.Decode(&candidate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackendReply, err)
	}

	var missing []string
	for _, key := range models.RequiredReportKeys {
		if _, ok := candidate[key]; !ok {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return nil, &SchemaValidationError{MissingKeys: missing}
	}

	return &models.SwotReport{
		Strengths:     stringifyValue(candidate["Strengths"]),
		Weaknesses:    stringifyValue(candidate["Weaknesses"]),
		Opportunities: stringifyValue(candidate["Opportunities"]),
		Threats:       stringifyValue(candidate["Threats"]),
		TotalMarks:    stringifyValue(candidate["Total Marks"]),
		WordCount:     stringifyValue(candidate["Word Count"]),
	}, nil
}

// stringifyValue renders whatever the backend returned for a key as a
// display string, since models reply with either strings or numbers.
func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		encoded, _ := json.Marshal(v)
		return string(encoded)
	}
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	// Remove markdown code blocks
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	// Find JSON object boundaries
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}
