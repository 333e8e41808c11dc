// Package engine wires the recommendation pipeline: anchor resolution,
// expanding search, constraint-aware ranking, and the optional external
// rerank pass. One Engine serves many concurrent requests; all per-request
// state stays on the stack.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tablescout/internal/anchor"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/internal/rank"
	"github.com/sells-group/tablescout/internal/search"
)

// Recommendation is the engine's answer to one preference query.
type Recommendation struct {
	RequestID  string           `json:"request_id"`
	Anchor     anchor.Anchor    `json:"anchor"`
	BBox       orb.Bound        `json:"bbox"`
	RadiusKm   float64          `json:"radius_km"`
	Candidates []rank.Candidate `json:"candidates"`
}

// Engine runs the full pipeline.
type Engine struct {
	resolver   *anchor.Resolver
	expander   *search.Expander
	scorer     *rank.Scorer
	reranker   *rank.Reranker // nil disables the rerank pass
	minResults int
	maxResults int
}

// Option configures the Engine.
type Option func(*Engine)

// WithReranker enables the external rerank pass.
func WithReranker(r *rank.Reranker) Option {
	return func(e *Engine) { e.reranker = r }
}

// WithResultBounds overrides how many venues a search must collect and how
// many candidates are returned.
func WithResultBounds(minResults, maxResults int) Option {
	return func(e *Engine) {
		if minResults > 0 {
			e.minResults = minResults
		}
		if maxResults > 0 {
			e.maxResults = maxResults
		}
	}
}

// New creates an Engine.
func New(resolver *anchor.Resolver, expander *search.Expander, scorer *rank.Scorer, opts ...Option) *Engine {
	e := &Engine{
		resolver:   resolver,
		expander:   expander,
		scorer:     scorer,
		minResults: 5,
		maxResults: 24,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend resolves, searches, ranks, and optionally reranks. The spec's
// anchor and radius fields are updated to reflect what actually ran.
func (e *Engine) Recommend(ctx context.Context, sp *prefs.Spec) (*Recommendation, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := zap.L().With(zap.String("request_id", requestID))
	started := time.Now()

	resolved, err := e.resolver.Resolve(ctx, sp)
	if err != nil {
		return nil, err
	}
	log.Info("anchor resolved",
		zap.String("type", string(resolved.Type)),
		zap.String("label", resolved.Label),
		zap.Float64("lon", resolved.Point.Lon()),
		zap.Float64("lat", resolved.Point.Lat()),
	)

	result, err := e.expander.Search(ctx, sp, resolved.Point, e.minResults)
	if err != nil {
		return nil, eris.Wrapf(err, "anchor %q", resolved.Label)
	}

	candidates := e.scorer.Rank(sp, result.Venues, result.Annotations, resolved.Point, e.maxResults)
	if e.reranker != nil {
		candidates = e.reranker.Rerank(ctx, sp, candidates)
	}

	log.Info("recommendation complete",
		zap.Int("venues", len(result.Venues)),
		zap.Int("candidates", len(candidates)),
		zap.Float64("radius_km", result.RadiusKm),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &Recommendation{
		RequestID:  requestID,
		Anchor:     resolved,
		BBox:       result.BBox,
		RadiusKm:   result.RadiusKm,
		Candidates: candidates,
	}, nil
}
