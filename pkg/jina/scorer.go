package jina

import (
	"context"

	"github.com/rotisserie/eris"
)

// Scorer adapts the rerank client to the engine's relevance-scoring
// capability: positional (query, document) scores in input order.
type Scorer struct {
	client Client
}

// NewScorer wraps a rerank client.
func NewScorer(client Client) *Scorer {
	return &Scorer{client: client}
}

// Score returns one relevance score per document, positionally aligned
// with the input.
func (s *Scorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	resp, err := s.client.Rerank(ctx, query, documents)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(documents))
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(scores) {
			return nil, eris.Errorf("jina: rerank result index %d out of range for %d documents", r.Index, len(documents))
		}
		scores[r.Index] = r.RelevanceScore
	}
	return scores, nil
}
