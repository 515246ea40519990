package ranker

import (
	"runtime"
	"sort"
	"sync"

	"github.com/chengAMS/hyperdoc/internal/model"
)

// Metric is the slice of manifold behavior ranking needs.
type Metric interface {
	Distance(p, q []float64) float64
	Normalize(p []float64) []float64
	OnManifold(p []float64) bool
}

// Candidates above this count get their distances computed across
// workers; ordering stays deterministic because results are written
// by index and sorted afterwards.
const parallelThreshold = 2048

type Ranker struct {
	metric Metric
}

func New(metric Metric) *Ranker {
	return &Ranker{metric: metric}
}

// Rank orders candidates by ascending geodesic distance from query,
// breaking ties by ascending id, and truncates to topK. Points that
// drifted off the manifold are re-normalized before measuring.
func (r *Ranker) Rank(query []float64, candidates []model.Chunk, topK int) []model.SearchResult {
	results := make([]model.SearchResult, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	fill := func(start, end int) {
		for i := start; i < end; i++ {
			c := candidates[i]
			point := c.Point
			if !r.metric.OnManifold(point) {
				point = r.metric.Normalize(point)
			}
			results[i] = model.SearchResult{
				ID:       c.ID,
				Text:     c.Text,
				Tag:      c.Tag,
				Distance: r.metric.Distance(query, point),
			}
		}
	}

	if len(candidates) >= parallelThreshold {
		workers := runtime.NumCPU()
		if workers > len(candidates) {
			workers = len(candidates)
		}
		step := (len(candidates) + workers - 1) / workers
		var wg sync.WaitGroup
		for start := 0; start < len(candidates); start += step {
			end := start + step
			if end > len(candidates) {
				end = len(candidates)
			}
			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				fill(start, end)
			}(start, end)
		}
		wg.Wait()
	} else {
		fill(0, len(candidates))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if topK > len(results) {
		topK = len(results)
	}
	if topK < 0 {
		topK = 0
	}
	return results[:topK]
}
