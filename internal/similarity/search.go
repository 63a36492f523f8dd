// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity finds answer-bank entries close to an RFP
// requirement by cosine similarity over stored embeddings.
// Implements: prd006-similarity; docs/ARCHITECTURE § Retrieval.
package similarity

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pdiddy/rfp-engine/internal/store"
	"github.com/pdiddy/rfp-engine/pkg/types"
)

const defaultMaxMatches = 5

// Searcher ranks answer-bank entries against a requirement.
type Searcher struct {
	Store *store.Store

	// MaxMatches caps the returned list. Zero means the default of 5.
	MaxMatches int

	// Out receives progress and warning messages. Defaults to stderr.
	Out io.Writer
}

func (s *Searcher) out() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return os.Stderr
}

func (s *Searcher) maxMatches() int {
	if s.MaxMatches > 0 {
		return s.MaxMatches
	}
	return defaultMaxMatches
}

// FindSimilarMatches ranks the answer bank against the requirement's
// embedding and persists the result as the requirement's match snapshot.
// A requirement with no embedded answer-bank counterpart yields no
// matches rather than an error, since generation can proceed without
// examples.
func (s *Searcher) FindSimilarMatches(ctx context.Context, requirementID int64) ([]types.SimilarMatch, error) {
	req, err := s.Store.LoadRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}

	embedding, err := s.Store.EmbeddingForText(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		fmt.Fprintf(s.out(), "warning: no embedding found for requirement %d, skipping similarity search\n", requirementID)
		return nil, nil
	}

	answers, err := s.Store.AnswersWithEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	var matches []types.SimilarMatch
	for _, a := range answers {
		// The requirement's own answer-bank entry is not an example.
		if a.Requirement == req.Text {
			continue
		}
		score := cosineSimilarity(embedding, a.Embedding)
		if math.IsNaN(score) {
			continue
		}
		matches = append(matches, types.SimilarMatch{
			Requirement: a.Requirement,
			Response:    a.Response,
			Score:       score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > s.maxMatches() {
		matches = matches[:s.maxMatches()]
	}
	for i := range matches {
		matches[i].Reference = fmt.Sprintf("Response #%d", i+1)
	}

	if err := s.Store.SaveMatchSnapshot(ctx, requirementID, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or NaN when either vector is zero or the lengths differ.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
