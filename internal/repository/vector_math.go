package repository

import (
	"math"
	"sort"

	"github.com/futig/askdocs/internal/entity"
)

// cosineDistance returns 1 - cos(a, b). Zero vectors are at distance 1.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// rankByDistance scores records against vector and keeps the k closest, ascending.
func rankByDistance(records []entity.VectorRecord, vector []float32, k int) []entity.VectorMatch {
	matches := make([]entity.VectorMatch, 0, len(records))
	for _, r := range records {
		matches = append(matches, entity.VectorMatch{
			VectorRecord: r,
			Distance:     cosineDistance(r.Vector, vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
