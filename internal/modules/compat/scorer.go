// README: Compatibility scorer; music taste via embeddings plus smoking and
// talkativeness match indicators, combined into one weighted score.
package compat

import (
	"context"
	"log/slog"
	"math"
)

// Embedder is the semantic-similarity capability. It returns the mean
// embedding of the given genre names; genres the upstream model cannot
// resolve contribute nothing. An empty or fully-unresolved set yields a
// zero-length vector, never an error the caller has to handle per genre.
type Embedder interface {
	EmbedGenres(ctx context.Context, genres []string) ([]float64, error)
}

// Weights control the combined score. Location applies to the proximity
// terms, Music to genre similarity, InitialBonus to the straight-line
// proximity bonus inside the location term.
type Weights struct {
	Location     float64 `json:"locationWeight"`
	Music        float64 `json:"musicWeight"`
	InitialBonus float64 `json:"initialLocationWeight"`
}

// Profile is the slice of a person's preferences the scorer reads.
type Profile struct {
	Smoking   *bool
	Talkative *bool
	Genres    []string
}

// Similarity is the pairwise comparison between a passenger and a driver.
// Smoking and Talkative are exact-match indicators; Music, InitialProximity
// and RouteProximity are in [0, 1].
type Similarity struct {
	Smoking          float64
	Talkative        float64
	Music            float64
	InitialProximity float64
	RouteProximity   float64
}

type Scorer struct {
	embedder Embedder
	log      *slog.Logger
}

func NewScorer(embedder Embedder, log *slog.Logger) *Scorer {
	return &Scorer{embedder: embedder, log: log}
}

// MusicMatrix returns cosine similarities between every passenger and driver
// genre profile. Each side is embedded once; an embedding failure degrades
// that entity to a zero vector (similarity 0), it never aborts the matrix.
func (s *Scorer) MusicMatrix(ctx context.Context, passengers, drivers []Profile) [][]float64 {
	matrix := make([][]float64, len(passengers))
	for i := range matrix {
		matrix[i] = make([]float64, len(drivers))
	}
	if len(passengers) == 0 || len(drivers) == 0 {
		return matrix
	}

	pVecs := s.embedAll(ctx, passengers)
	dVecs := s.embedAll(ctx, drivers)

	for i := range passengers {
		for j := range drivers {
			matrix[i][j] = Cosine(pVecs[i], dVecs[j])
		}
	}
	return matrix
}

func (s *Scorer) embedAll(ctx context.Context, profiles []Profile) [][]float64 {
	vecs := make([][]float64, len(profiles))
	for i, p := range profiles {
		if len(p.Genres) == 0 {
			continue
		}
		vec, err := s.embedder.EmbedGenres(ctx, p.Genres)
		if err != nil {
			s.log.Warn("genre embedding failed, music similarity degrades to 0", "err", err)
			continue
		}
		vecs[i] = vec
	}
	return vecs
}

// Compare builds the full similarity record for one pair. Distances are in
// metres; radiusMeters is the driver's pickup radius. Callers must exclude
// candidates beyond the pickup radius before comparing.
func (s *Scorer) Compare(passenger, driver Profile, musicSim, initialMeters, routeMeters, radiusMeters float64) Similarity {
	return Similarity{
		Smoking:          boolMatch(passenger.Smoking, driver.Smoking),
		Talkative:        boolMatch(passenger.Talkative, driver.Talkative),
		Music:            musicSim,
		InitialProximity: NormalizeProximity(initialMeters, radiusMeters),
		RouteProximity:   NormalizeProximity(routeMeters, radiusMeters),
	}
}

// NormalizeProximity maps a distance inside the radius to (radius-d)/radius:
// 1 when colocated, 0 at the radius boundary, clamped at 0 beyond it or when
// the distance is unknown (+Inf).
func NormalizeProximity(meters, radiusMeters float64) float64 {
	if radiusMeters <= 0 || math.IsInf(meters, 1) || meters > radiusMeters {
		return 0
	}
	return (radiusMeters - meters) / radiusMeters
}

// Score folds the similarity record into the weighted pair score:
//
//	location*(routeProximity + initialBonus*initialProximity) + music*musicSim
//
// The smoking and talkative indicators are informational and do not enter
// the score.
func (s Similarity) Score(w Weights) float64 {
	locationScore := s.RouteProximity + w.InitialBonus*s.InitialProximity
	return w.Location*locationScore + w.Music*s.Music
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// empty, zero or of mismatched length.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func boolMatch(a, b *bool) float64 {
	// Missing values default to false before comparison.
	av, bv := false, false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	if av == bv {
		return 1
	}
	return 0
}
