package parser

import (
	"encoding/json"
	"errors"
	"strings"

	"civic-complaint-service/classifier"
)

// ExtractJSONFromMarkdown extracts a JSON object from a possibly
// markdown-fenced LLM response.
func ExtractJSONFromMarkdown(response string) string {
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find a JSON object directly.
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json").
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// rawComparison accepts the loose field spellings the classifier has been
// observed to emit before normalization.
type rawComparison struct {
	Score               *float64 `json:"score"`
	Similarity          *float64 `json:"similarity"`
	Reasoning           string   `json:"reasoning"`
	ProblemMatch        bool     `json:"problem_match"`
	SeverityMatch       bool     `json:"severity_match"`
	InfrastructureMatch bool     `json:"infrastructure_match"`
	SameLocation        bool     `json:"same_location"`
	SameProblem         bool     `json:"same_problem"`
	SameType            bool     `json:"same_type"`
}

func parseRaw(response string) (*rawComparison, error) {
	cleaned := ExtractJSONFromMarkdown(strings.TrimSpace(response))

	var raw rawComparison
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, err
	}
	if raw.Score == nil && raw.Similarity == nil {
		return nil, errors.New("score is required")
	}
	if raw.Score == nil {
		raw.Score = raw.Similarity
	}
	return &raw, nil
}

// ParseTextComparison normalizes a text-comparison response into a typed
// result with the score clamped to [0,1].
func ParseTextComparison(response string) (*classifier.TextComparison, error) {
	raw, err := parseRaw(response)
	if err != nil {
		return nil, err
	}
	return &classifier.TextComparison{
		Score:               clampScore(*raw.Score),
		Reasoning:           raw.Reasoning,
		ProblemMatch:        raw.ProblemMatch,
		SeverityMatch:       raw.SeverityMatch,
		InfrastructureMatch: raw.InfrastructureMatch,
	}, nil
}

// ParseImageComparison normalizes an image-comparison response.
func ParseImageComparison(response string) (*classifier.ImageComparison, error) {
	raw, err := parseRaw(response)
	if err != nil {
		return nil, err
	}
	return &classifier.ImageComparison{
		Score:        clampScore(*raw.Score),
		Reasoning:    raw.Reasoning,
		SameLocation: raw.SameLocation,
		SameProblem:  raw.SameProblem,
	}, nil
}

// ParseCategoryComparison normalizes a category-comparison response.
func ParseCategoryComparison(response string) (*classifier.CategoryComparison, error) {
	raw, err := parseRaw(response)
	if err != nil {
		return nil, err
	}
	return &classifier.CategoryComparison{
		Score:    clampScore(*raw.Score),
		SameType: raw.SameType,
	}, nil
}

// ParseIntent normalizes an intent-analysis response. Missing fields fall
// back to neutral defaults rather than failing the message flow.
func ParseIntent(response string) (*classifier.IntentResult, error) {
	cleaned := ExtractJSONFromMarkdown(strings.TrimSpace(response))

	var raw struct {
		Intent     string   `json:"intent"`
		Context    string   `json:"context"`
		State      string   `json:"state"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, err
	}
	if raw.Intent == "" {
		raw.Intent = "unknown"
	}
	confidence := 0.5
	if raw.Confidence != nil {
		confidence = clampScore(*raw.Confidence)
	}
	return &classifier.IntentResult{
		Intent:     raw.Intent,
		Context:    raw.Context,
		State:      raw.State,
		Confidence: confidence,
	}, nil
}

// ParseLabel extracts a single short label (department, priority, category)
// from a response that may arrive bare or wrapped in JSON.
func ParseLabel(response string) (string, error) {
	cleaned := strings.TrimSpace(response)
	if cleaned == "" {
		return "", errors.New("empty label response")
	}
	if strings.Contains(cleaned, "{") {
		var raw struct {
			Label      string `json:"label"`
			Department string `json:"department"`
			Priority   string `json:"priority"`
			Category   string `json:"category"`
		}
		if err := json.Unmarshal([]byte(ExtractJSONFromMarkdown(cleaned)), &raw); err != nil {
			return "", err
		}
		for _, v := range []string{raw.Label, raw.Department, raw.Priority, raw.Category} {
			if v != "" {
				return v, nil
			}
		}
		return "", errors.New("no label in response")
	}
	// Bare label, possibly quoted.
	return strings.Trim(cleaned, "\"' \n"), nil
}
