package geo

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade_tracker/internal/apperr"
)

var codePattern = regexp.MustCompile(`^CONG-[A-Z0-9]{6}$`)

func TestGenerate_CountBounds(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))

	for _, count := range []int{-1, 0, 101, 1000} {
		_, err := g.Generate(count)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument, "count %d", count)
	}
}

func TestGenerate_CodesAndCoordinates(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(42)))

	for _, count := range []int{1, 2, 17, 100} {
		got, err := g.Generate(count)
		require.NoError(t, err)
		require.Len(t, got, count)

		for _, c := range got {
			assert.Regexp(t, codePattern, c.Code)
			assert.GreaterOrEqual(t, c.Latitude, LatMin)
			assert.LessOrEqual(t, c.Latitude, LatMax)
			assert.GreaterOrEqual(t, c.Longitude, LonMin)
			assert.LessOrEqual(t, c.Longitude, LonMax)
			assert.True(t, InBounds(c.Latitude, c.Longitude))
			assert.Equal(t, c.Latitude, Round6(c.Latitude))
			assert.Equal(t, c.Longitude, Round6(c.Longitude))
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := NewGenerator(rand.New(rand.NewSource(7))).Generate(5)
	require.NoError(t, err)
	b, err := NewGenerator(rand.New(rand.NewSource(7))).Generate(5)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestInBounds(t *testing.T) {
	assert.True(t, InBounds(4.711, -74.072)) // Bogota
	assert.False(t, InBounds(40.4, -3.7))
	assert.False(t, InBounds(4.7, -60.0))
}
