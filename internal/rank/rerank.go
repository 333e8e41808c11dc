package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/tablescout/internal/config"
	"github.com/sells-group/tablescout/internal/prefs"
)

// RelevanceScorer is the external relevance-scoring capability. Scores are
// positional: one per document, same order as the input.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Reranker blends externally computed relevance into the top-N candidate
// scores and re-sorts the whole list. It never fails a request: any
// capability error leaves the input unchanged.
type Reranker struct {
	scorer RelevanceScorer
	cfg    config.RerankConfig
}

// NewReranker creates a Reranker over the given capability.
func NewReranker(scorer RelevanceScorer, cfg config.RerankConfig) *Reranker {
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	cfg.Weight = math.Min(math.Max(cfg.Weight, 0), 1)
	return &Reranker{scorer: scorer, cfg: cfg}
}

// Rerank scores the top-N candidates against a query built from the spec,
// min-max normalizes the returned scores, blends them into the candidate
// scores with the configured weight, and re-sorts the entire list.
func (r *Reranker) Rerank(ctx context.Context, sp *prefs.Spec, candidates []Candidate) []Candidate {
	if r == nil || r.scorer == nil || len(candidates) == 0 {
		return candidates
	}

	topN := min(r.cfg.TopN, len(candidates))
	subset := candidates[:topN]

	query := buildQuery(sp)
	documents := make([]string, len(subset))
	for i, c := range subset {
		documents[i] = buildDocument(c)
	}

	scores, err := r.scorer.Score(ctx, query, documents)
	if err != nil {
		zap.L().Warn("rerank pass skipped", zap.Error(err))
		return candidates
	}
	if len(scores) != len(documents) {
		zap.L().Warn("rerank pass skipped: score count mismatch",
			zap.Int("documents", len(documents)),
			zap.Int("scores", len(scores)),
		)
		return candidates
	}

	normalized := normalize(scores)
	for i := range subset {
		subset[i].Score = round4((1-r.cfg.Weight)*subset[i].Score + r.cfg.Weight*normalized[i])
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// normalize min-max scales scores into [0,1]; a constant input maps to 0.5.
func normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}
	minV, maxV := scores[0], scores[0]
	for _, s := range scores[1:] {
		minV = math.Min(minV, s)
		maxV = math.Max(maxV, s)
	}

	out := make([]float64, len(scores))
	if maxV-minV < 1e-6 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - minV) / (maxV - minV)
	}
	return out
}

func buildQuery(sp *prefs.Spec) string {
	var parts []string
	if sp.City != "" {
		parts = append(parts, "Best restaurants in "+sp.City)
	}
	if sp.Area != "" {
		parts = append(parts, "Neighborhood: "+sp.Area)
	}
	if len(sp.Cuisines) > 0 {
		parts = append(parts, "Cuisine: "+strings.Join(sp.Cuisines, ", "))
	}
	if len(sp.Ambiance) > 0 {
		parts = append(parts, "Ambience: "+strings.Join(sp.Ambiance, ", "))
	}
	if sp.BudgetPerPerson > 0 {
		parts = append(parts, fmt.Sprintf("Budget $%.0f per person", sp.BudgetPerPerson))
	}
	return strings.Join(parts, " | ")
}

func buildDocument(c Candidate) string {
	tags := c.CuisineLabels
	if len(tags) == 0 {
		tags = c.Venue.Tags
	}

	parts := make([]string, 0, 4)
	for _, p := range []string{
		c.Venue.Name,
		c.Venue.Address,
		strings.Join(tags, ", "),
		strings.Join(c.Pros, "; "),
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}
