package similarity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"civic-complaint-service/classifier"
	"civic-complaint-service/models"
)

// Weights of the five analyzers. They sum to 1.0.
const (
	WeightText     = 0.35
	WeightLocation = 0.30
	WeightImage    = 0.20
	WeightRecency  = 0.10
	WeightCategory = 0.05
)

// Candidate pool contract defaults.
const (
	DefaultMaxCandidates = 50
	DefaultCandidateAge  = 30 * 24 * time.Hour
	DefaultParallelism   = 5
	DefaultTimeout       = 20 * time.Second

	// shortCircuitKm is the distance beyond which a cross-department
	// candidate is skipped without any classifier call.
	shortCircuitKm = 0.2
)

// Breakdown holds every analyzer's contribution to a verdict.
type Breakdown struct {
	Text     TextScore     `json:"text"`
	Location LocationScore `json:"location"`
	Image    ImageScore    `json:"image"`
	Recency  AnalyzerScore `json:"recency"`
	Category CategoryScore `json:"category"`
}

// Result is the similarity engine's verdict for one candidate, or the best
// observation across a candidate pool.
type Result struct {
	Score       float64           `json:"score"`
	IsDuplicate bool              `json:"is_duplicate"`
	Confidence  float64           `json:"confidence"`
	Breakdown   Breakdown         `json:"breakdown"`
	Explanation string            `json:"explanation"`
	Candidate   *models.Complaint `json:"-"`
}

// CandidateSource is the repository slice the engine scans for duplicates.
type CandidateSource interface {
	QueryCandidateComplaints(ctx context.Context, statusIn []string, createdAfter time.Time, limit int, excludeCreatedBy string) ([]*models.Complaint, error)
}

// Engine combines five independent analyzers into a duplicate verdict.
type Engine struct {
	classifier    classifier.Client
	repo          CandidateSource
	maxCandidates int
	candidateAge  time.Duration
	parallelism   int
	timeout       time.Duration
}

// NewEngine creates a similarity engine with the default pool contract.
func NewEngine(cls classifier.Client, repo CandidateSource) *Engine {
	return &Engine{
		classifier:    cls,
		repo:          repo,
		maxCandidates: DefaultMaxCandidates,
		candidateAge:  DefaultCandidateAge,
		parallelism:   DefaultParallelism,
		timeout:       DefaultTimeout,
	}
}

// WithTimeout overrides the engine's overall latency budget.
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	e.timeout = d
	return e
}

// WithParallelism bounds concurrent candidate evaluations.
func (e *Engine) WithParallelism(n int) *Engine {
	if n > 0 {
		e.parallelism = n
	}
	return e
}

// aggregate computes the weighted sum of a breakdown. When the image
// comparison is not applicable its weight is redistributed proportionally
// over the remaining four analyzers.
func aggregate(b *Breakdown) float64 {
	score := WeightText*b.Text.Score +
		WeightLocation*b.Location.Score +
		WeightImage*b.Image.Score +
		WeightRecency*b.Recency.Score +
		WeightCategory*b.Category.Score
	if !b.Image.Applicable {
		score /= 1.0 - WeightImage
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// decideDuplicateStatus applies the override rules in order. It is monotonic
// in every sub-score.
func decideDuplicateStatus(score float64, b *Breakdown) (bool, string) {
	switch {
	case score >= 0.85:
		return true, fmt.Sprintf("overall similarity %.2f", score)
	case score >= 0.75 && b.Location.WithinProximity:
		return true, fmt.Sprintf("similarity %.2f within %.0f m proximity", score, proximityKm*1000)
	case b.Text.Score >= 0.85 && b.Location.Score >= 0.70:
		return true, "near-identical description at a nearby location"
	case b.Location.Score >= 0.90 && b.Text.Score >= 0.60:
		return true, "same spot with a matching description"
	case b.Image.Score >= 0.80 && b.Location.Score >= 0.60:
		return true, "matching photos at a nearby location"
	case score >= 0.80:
		return true, fmt.Sprintf("overall similarity %.2f", score)
	}
	return false, fmt.Sprintf("overall similarity %.2f below threshold", score)
}

// confidence is the aggregate score with a +0.1 boost when at least two
// strong independent signals agree.
func confidence(score float64, b *Breakdown) float64 {
	strong := 0
	if b.Text.Score >= 0.8 {
		strong++
	}
	if b.Location.WithinProximity {
		strong++
	}
	if b.Image.Score >= 0.7 {
		strong++
	}
	c := score
	if strong >= 2 {
		c += 0.1
	}
	if c > 1.0 {
		c = 1.0
	}
	return c
}

// Evaluate scores a new report against one candidate complaint. Analyzer
// failures degrade to 0 and never abort the evaluation.
func (e *Engine) Evaluate(ctx context.Context, report *models.Report, candidate *models.Complaint) *Result {
	var b Breakdown

	// The classifier-backed analyzers are independent; run them together.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		b.Text = e.analyzeText(ctx, report.Text, candidate.Description)
	}()
	go func() {
		defer wg.Done()
		b.Image = e.analyzeImage(ctx, report.ImageRef, candidate.ImageRef)
	}()
	go func() {
		defer wg.Done()
		b.Category = e.analyzeCategory(ctx, report.Text, candidate.Category)
	}()

	candLat, candLon, candOK := candidateCoord(candidate)
	candAddr := ""
	if candidate.Location != nil {
		candAddr = candidate.Location.Address
	}
	var lat, lon float64
	if report.HasLocation() {
		lat, lon = *report.Latitude, *report.Longitude
	}
	b.Location = e.analyzeLocation(lat, lon, "", report.HasLocation(), candLat, candLon, candAddr, candOK)
	b.Recency = analyzeRecency(time.Now(), candidate.CreatedAt)
	wg.Wait()

	score := aggregate(&b)
	isDup, why := decideDuplicateStatus(score, &b)

	return &Result{
		Score:       score,
		IsDuplicate: isDup,
		Confidence:  confidence(score, &b),
		Breakdown:   b,
		Explanation: why,
		Candidate:   candidate,
	}
}

// shouldSkip is the cheap short-circuit: a candidate assigned to a different
// department is skipped without classifier calls when the two reports are
// not provably close together.
func shouldSkip(report *models.Report, reportDepartment string, candidate *models.Complaint) bool {
	if reportDepartment == "" || candidate.Department == "" || reportDepartment == candidate.Department {
		return false
	}
	candLat, candLon, ok := candidateCoord(candidate)
	if !report.HasLocation() || !ok {
		return true
	}
	return DistanceKm(*report.Latitude, *report.Longitude, candLat, candLon) > shortCircuitKm
}

// notDuplicate builds a clean no-duplicate result used on empty pools and
// engine-level failures.
func notDuplicate(explanation string) *Result {
	return &Result{Score: 0, IsDuplicate: false, Confidence: 0, Explanation: explanation}
}

// FindDuplicate scans the candidate pool for the report and returns the
// highest-scoring duplicate match, or the highest score observed when no
// candidate crosses a threshold. It never returns an error for classifier
// failures; a pool that cannot be read is the only fatal case, and callers
// must treat any failure as "not duplicate".
func (e *Engine) FindDuplicate(ctx context.Context, report *models.Report, reportDepartment string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	candidates, err := e.repo.QueryCandidateComplaints(
		ctx,
		[]string{models.StatusDraft, models.StatusActive},
		time.Now().Add(-e.candidateAge),
		e.maxCandidates,
		report.ReporterID,
	)
	if err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}
	if len(candidates) == 0 {
		return notDuplicate("no open complaints to compare against"), nil
	}

	var (
		mu   sync.Mutex
		best *Result
	)
	// A duplicate verdict always outranks a non-duplicate one: the override
	// rules can fire on aggregates below a non-duplicate's ceiling, so score
	// alone must never decide between the two classes.
	record := func(r *Result) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case best == nil:
			best = r
		case r.IsDuplicate != best.IsDuplicate:
			if r.IsDuplicate {
				best = r
			}
		case r.Score > best.Score:
			best = r
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for _, candidate := range candidates {
		if shouldSkip(report, reportDepartment, candidate) {
			log.WithField("complaint_id", candidate.ID).
				Debug("skipping cross-department candidate")
			continue
		}
		candidate := candidate
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			record(e.Evaluate(gctx, report, candidate))
			return nil
		})
	}
	_ = g.Wait()

	// A timeout mid-scan still yields the best-effort verdict observed so far.
	if best == nil {
		return notDuplicate("no comparable candidates"), nil
	}
	return best, nil
}
