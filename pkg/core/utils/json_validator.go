package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/go-playground/validator/v10"
	hjson "github.com/hjson/hjson-go/v4"
)

var validate = validator.New()

// ValidateJSON decodes jsonData into schema and checks its `validate` tags.
// LLM output is accepted only when the code-side struct says it is complete.
func ValidateJSON(jsonData string, schema interface{}) error {
	if err := json.Unmarshal([]byte(jsonData), schema); err != nil {
		return fmt.Errorf("JSON_STRUCTURAL_ERROR: %w", err)
	}
	if err := validate.Struct(schema); err != nil {
		return fmt.Errorf("JSON_SCHEMA_VIOLATION: %w", err)
	}
	return nil
}

// RepairJSON attempts to fix common JSON errors from LLM outputs:
// unquoted keys, single quotes, unclosed containers, trailing commas,
// comments and surrounding prose.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %w", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %w", err)
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %w", err)
	}
	return string(jsonBytes), nil
}

// SmartParse tries increasingly lenient strategies until the input decodes
// into schema and passes validation:
// 1. Standard JSON (after stripping a code fence)
// 2. JSON repair
// 3. Hjson
//
// It returns the JSON text that was accepted.
func SmartParse(input string, schema interface{}) (string, error) {
	cleaned := CleanMarkdown(input)

	var lastErr error
	try := func(candidate string) bool {
		if err := ValidateJSON(candidate, schema); err != nil {
			lastErr = err
			return false
		}
		return true
	}

	if try(cleaned) {
		return cleaned, nil
	}
	if repaired, err := RepairJSON(cleaned); err == nil && try(repaired) {
		return repaired, nil
	}
	if converted, err := ParseHJSON(cleaned); err == nil && try(converted) {
		return converted, nil
	}
	return "", fmt.Errorf("SMART_PARSE_FAILED: %w", lastErr)
}
