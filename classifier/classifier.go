package classifier

import "context"

// IntentResult is the structured judgment for a raw inbound message.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Context    string  `json:"context"`
	State      string  `json:"state"`
	Confidence float64 `json:"confidence"`
}

// TextComparison is the normalized result of comparing two issue descriptions.
type TextComparison struct {
	Score               float64 `json:"score"`
	Reasoning           string  `json:"reasoning"`
	ProblemMatch        bool    `json:"problem_match"`
	SeverityMatch       bool    `json:"severity_match"`
	InfrastructureMatch bool    `json:"infrastructure_match"`
}

// ImageComparison is the normalized result of comparing two report photos.
type ImageComparison struct {
	Score        float64 `json:"score"`
	Reasoning    string  `json:"reasoning"`
	SameLocation bool    `json:"same_location"`
	SameProblem  bool    `json:"same_problem"`
}

// CategoryComparison is the normalized result of comparing two issue categories.
type CategoryComparison struct {
	Score    float64 `json:"score"`
	SameType bool    `json:"same_type"`
}

// Client abstracts the classification service used by the similarity engine
// and the complaint lifecycle. Implementations must be concurrency-safe and
// must honor context cancellation on every call.
type Client interface {
	// AnalyzeIntent turns a raw message into a structured intent judgment.
	AnalyzeIntent(ctx context.Context, text string) (*IntentResult, error)

	// CompareText scores how likely two descriptions refer to the same issue.
	CompareText(ctx context.Context, a, b string) (*TextComparison, error)

	// CompareImages scores how likely two photo references show the same issue.
	CompareImages(ctx context.Context, refA, refB string) (*ImageComparison, error)

	// CompareCategory scores whether two categories describe the same issue type.
	CompareCategory(ctx context.Context, a, b string) (*CategoryComparison, error)

	// CategorizeDepartment maps a description to a municipal department name.
	CategorizeDepartment(ctx context.Context, text string) (string, error)

	// AssessPriority maps a description to one of emergency/high/medium/low.
	AssessPriority(ctx context.Context, text string) (string, error)

	// CategorizeType maps a description to an issue category name.
	CategorizeType(ctx context.Context, text string) (string, error)

	// SourceName returns a short provider label for logging (e.g. "ChatGPT").
	SourceName() string
}
