// Package geo produces sampling-site candidates and derives their sub-plots.
package geo

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/twpayne/go-geom"

	"brigade_tracker/internal/apperr"
)

const (
	CodePrefix   = "CONG-"
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	MinBatch = 1
	MaxBatch = 100

	// Continental Colombia.
	LatMin = -4.23
	LatMax = 12.47
	LonMin = -79.02
	LonMax = -66.85
)

// Candidate is a site that has not been stored yet.
type Candidate struct {
	Code      string
	Latitude  float64
	Longitude float64
}

// Generator draws site codes and coordinates. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd}
}

// Generate returns count candidates. Codes are not checked for uniqueness
// here; the store's unique index on the code column does that.
func (g *Generator) Generate(count int) ([]Candidate, error) {
	if count < MinBatch || count > MaxBatch {
		return nil, apperr.New(apperr.ErrInvalidArgument, "count must be between %d and %d", MinBatch, MaxBatch)
	}
	out := make([]Candidate, 0, count)
	for i := 0; i < count; i++ {
		lat, lon := g.Coordinates()
		out = append(out, Candidate{Code: g.Code(), Latitude: lat, Longitude: lon})
	}
	return out, nil
}

// Code returns a fresh CONG-XXXXXX code.
func (g *Generator) Code() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[g.rnd.Intn(len(codeAlphabet))]
	}
	return CodePrefix + string(b)
}

// Coordinates returns an independent uniform draw inside the bounding box.
func (g *Generator) Coordinates() (lat, lon float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lat = Round6(g.rnd.Float64()*(LatMax-LatMin) + LatMin)
	lon = Round6(g.rnd.Float64()*(LonMax-LonMin) + LonMin)
	return lat, lon
}

// Bounds is the sampling box as X=longitude, Y=latitude.
func Bounds() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(LonMin, LatMin, LonMax, LatMax)
}

// InBounds reports whether the point lies in the sampling box.
func InBounds(lat, lon float64) bool {
	return Bounds().OverlapsPoint(geom.XY, geom.Coord{lon, lat})
}

// Round6 rounds to 6 decimal places (about 0.1 m).
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
