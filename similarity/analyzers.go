package similarity

import (
	"context"
	"time"

	"github.com/apex/log"

	"civic-complaint-service/models"
)

// AnalyzerScore is the common shape of one analyzer's contribution.
type AnalyzerScore struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// TextScore is the text analyzer's contribution.
type TextScore struct {
	AnalyzerScore
	ProblemMatch        bool `json:"problem_match"`
	SeverityMatch       bool `json:"severity_match"`
	InfrastructureMatch bool `json:"infrastructure_match"`
}

// LocationScore is the location analyzer's contribution.
type LocationScore struct {
	AnalyzerScore
	DistanceKm      float64 `json:"distance_km"`
	WithinProximity bool    `json:"within_proximity"`
}

// ImageScore is the image analyzer's contribution. Applicable is false when
// either side lacks an image reference; the image weight is then
// redistributed over the remaining analyzers.
type ImageScore struct {
	AnalyzerScore
	Applicable   bool `json:"applicable"`
	SameLocation bool `json:"same_location"`
	SameProblem  bool `json:"same_problem"`
}

// CategoryScore is the category analyzer's contribution.
type CategoryScore struct {
	AnalyzerScore
	SameType bool `json:"same_type"`
}

// analyzeText delegates to the classifier's text comparison. Any failure
// degrades to score 0 so the evaluation proceeds with partial signal.
func (e *Engine) analyzeText(ctx context.Context, a, b string) TextScore {
	if a == "" || b == "" {
		return TextScore{AnalyzerScore: AnalyzerScore{Score: 0, Rationale: "description missing"}}
	}
	cmp, err := e.classifier.CompareText(ctx, a, b)
	if err != nil {
		log.WithError(err).Warn("text comparison failed, degrading to 0")
		return TextScore{AnalyzerScore: AnalyzerScore{Score: 0, Rationale: "text comparison failed"}}
	}
	return TextScore{
		AnalyzerScore:       AnalyzerScore{Score: cmp.Score, Rationale: cmp.Reasoning},
		ProblemMatch:        cmp.ProblemMatch,
		SeverityMatch:       cmp.SeverityMatch,
		InfrastructureMatch: cmp.InfrastructureMatch,
	}
}

// analyzeImage delegates to the classifier's image comparison. It only runs
// when both reports carry an image reference.
func (e *Engine) analyzeImage(ctx context.Context, refA, refB string) ImageScore {
	if refA == "" || refB == "" {
		return ImageScore{
			AnalyzerScore: AnalyzerScore{Score: 0, Rationale: "image missing on one side"},
			Applicable:    false,
		}
	}
	cmp, err := e.classifier.CompareImages(ctx, refA, refB)
	if err != nil {
		log.WithError(err).Warn("image comparison failed, degrading to 0")
		return ImageScore{
			AnalyzerScore: AnalyzerScore{Score: 0, Rationale: "image comparison failed"},
			Applicable:    true,
		}
	}
	return ImageScore{
		AnalyzerScore: AnalyzerScore{Score: cmp.Score, Rationale: cmp.Reasoning},
		Applicable:    true,
		SameLocation:  cmp.SameLocation,
		SameProblem:   cmp.SameProblem,
	}
}

// analyzeRecency scores how recently the candidate complaint was created.
func analyzeRecency(now, createdAt time.Time) AnalyzerScore {
	if createdAt.IsZero() {
		return AnalyzerScore{Score: 0, Rationale: "creation time missing"}
	}
	hours := now.Sub(createdAt).Hours()
	var score float64
	switch {
	case hours <= 24:
		score = 1.0
	case hours <= 72:
		score = 0.8
	case hours <= 168:
		score = 0.6
	case hours <= 720:
		score = 0.3
	default:
		score = 0.1
	}
	return AnalyzerScore{Score: score}
}

// analyzeCategory delegates to the classifier's category comparison.
func (e *Engine) analyzeCategory(ctx context.Context, a, b string) CategoryScore {
	if a == "" || b == "" {
		return CategoryScore{AnalyzerScore: AnalyzerScore{Score: 0, Rationale: "category missing"}}
	}
	cmp, err := e.classifier.CompareCategory(ctx, a, b)
	if err != nil {
		log.WithError(err).Warn("category comparison failed, degrading to 0")
		return CategoryScore{AnalyzerScore: AnalyzerScore{Score: 0, Rationale: "category comparison failed"}}
	}
	return CategoryScore{
		AnalyzerScore: AnalyzerScore{Score: cmp.Score},
		SameType:      cmp.SameType,
	}
}

// candidateCoord extracts a candidate complaint's coordinate if confirmed.
func candidateCoord(c *models.Complaint) (lat, lon float64, ok bool) {
	if c.Location == nil {
		return 0, 0, false
	}
	return c.Location.Latitude, c.Location.Longitude, true
}
