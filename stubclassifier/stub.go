package stubclassifier

import (
	"context"
	"crypto/sha256"
	"strings"

	"civic-complaint-service/classifier"
)

// Client is a deterministic, no-network classifier stub intended for CI and
// local end-to-end tests. Identical inputs score 1.0; everything else gets a
// stable hash-derived score so duplicate decisions are reproducible.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

// pairScore returns 1.0 for equal inputs, otherwise a stable value in [0,0.5).
func pairScore(a, b string) float64 {
	if strings.TrimSpace(a) == strings.TrimSpace(b) && a != "" {
		return 1.0
	}
	sum := sha256.Sum256([]byte(a + "\x00" + b))
	return float64(sum[0]%50) / 100.0
}

func (c *Client) AnalyzeIntent(_ context.Context, text string) (*classifier.IntentResult, error) {
	intent := "complaint"
	if strings.TrimSpace(text) == "" {
		intent = "other"
	}
	return &classifier.IntentResult{
		Intent:     intent,
		Context:    text,
		State:      "new",
		Confidence: 0.9,
	}, nil
}

func (c *Client) CompareText(_ context.Context, a, b string) (*classifier.TextComparison, error) {
	score := pairScore(a, b)
	return &classifier.TextComparison{
		Score:               score,
		Reasoning:           "stubbed comparison",
		ProblemMatch:        score >= 0.5,
		SeverityMatch:       score >= 0.5,
		InfrastructureMatch: score >= 0.5,
	}, nil
}

func (c *Client) CompareImages(_ context.Context, refA, refB string) (*classifier.ImageComparison, error) {
	score := pairScore(refA, refB)
	return &classifier.ImageComparison{
		Score:        score,
		Reasoning:    "stubbed comparison",
		SameLocation: score >= 0.5,
		SameProblem:  score >= 0.5,
	}, nil
}

func (c *Client) CompareCategory(_ context.Context, a, b string) (*classifier.CategoryComparison, error) {
	score := pairScore(a, b)
	return &classifier.CategoryComparison{
		Score:    score,
		SameType: score >= 0.5,
	}, nil
}

func (c *Client) CategorizeDepartment(_ context.Context, text string) (string, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "water"):
		return "Water Supply", nil
	case strings.Contains(lower, "garbage"), strings.Contains(lower, "waste"):
		return "Waste Management", nil
	case strings.Contains(lower, "road"), strings.Contains(lower, "pothole"):
		return "Roads & Infrastructure", nil
	case strings.Contains(lower, "light"):
		return "Street Lighting", nil
	}
	return "General Administration", nil
}

func (c *Client) AssessPriority(_ context.Context, text string) (string, error) {
	if strings.Contains(strings.ToLower(text), "emergency") {
		return "emergency", nil
	}
	return "medium", nil
}

func (c *Client) CategorizeType(_ context.Context, _ string) (string, error) {
	return "General Services", nil
}
