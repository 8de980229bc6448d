package vectorstore

import (
	"sort"

	"github.com/hyperjump/regvec/internal/models"
	"github.com/hyperjump/regvec/pkg/utils"
)

type candidate struct {
	id      int
	vector  []float32
	text    string
	payload map[string]string
}

// topK scores candidates by cosine similarity to query and returns the best limit hits.
// Ties are broken by ascending ID so results are stable.
func topK(query []float32, cands []candidate, limit int) []models.Hit {
	if limit <= 0 || len(cands) == 0 {
		return nil
	}
	hits := make([]models.Hit, len(cands))
	for i, c := range cands {
		hits[i] = models.Hit{
			ID:      c.id,
			Score:   utils.CosineSimilarity(query, c.vector),
			Text:    c.text,
			Payload: clonePayload(c.payload),
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}

func clonePayload(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
