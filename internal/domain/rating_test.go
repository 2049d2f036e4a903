package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidStars(t *testing.T) {
	for stars := MinStars; stars <= MaxStars; stars++ {
		assert.True(t, ValidStars(stars), "expected %d to be valid", stars)
	}
	assert.False(t, ValidStars(0))
	assert.False(t, ValidStars(6))
	assert.False(t, ValidStars(-1))
}

func TestRatingStatistics_AddRating(t *testing.T) {
	s := NewRatingStatistics(1)

	require.NoError(t, s.AddRating(5))
	require.NoError(t, s.AddRating(5))
	require.NoError(t, s.AddRating(3))

	assert.Equal(t, int64(3), s.TotalRatings)
	assert.Equal(t, int64(13), s.TotalStars)
	assert.Equal(t, int64(2), s.FiveStars)
	assert.Equal(t, int64(1), s.ThreeStars)
	assert.True(t, s.IsConsistent())
}

func TestRatingStatistics_AddRating_InvalidStars(t *testing.T) {
	s := NewRatingStatistics(1)

	assert.ErrorIs(t, s.AddRating(0), ErrInvalidStarValue)
	assert.ErrorIs(t, s.AddRating(6), ErrInvalidStarValue)

	// Failed adds must not touch any counter.
	assert.Equal(t, int64(0), s.TotalRatings)
	assert.Equal(t, int64(0), s.TotalStars)
}

func TestRatingStatistics_UpdateRating_MovesBuckets(t *testing.T) {
	s := NewRatingStatistics(1)
	require.NoError(t, s.AddRating(2))

	require.NoError(t, s.UpdateRating(2, 5))

	assert.Equal(t, int64(1), s.TotalRatings)
	assert.Equal(t, int64(5), s.TotalStars)
	assert.Equal(t, int64(0), s.TwoStars)
	assert.Equal(t, int64(1), s.FiveStars)
	assert.True(t, s.IsConsistent())
}

func TestRatingStatistics_UpdateRating_SameValueIsNoop(t *testing.T) {
	s := NewRatingStatistics(1)
	require.NoError(t, s.AddRating(4))

	before := *s
	require.NoError(t, s.UpdateRating(4, 4))
	assert.Equal(t, before.TotalStars, s.TotalStars)
	assert.Equal(t, before.FourStars, s.FourStars)
}

func TestRatingStatistics_UpdateRating_InvalidStars(t *testing.T) {
	s := NewRatingStatistics(1)
	require.NoError(t, s.AddRating(4))

	assert.ErrorIs(t, s.UpdateRating(4, 7), ErrInvalidStarValue)
	assert.ErrorIs(t, s.UpdateRating(0, 4), ErrInvalidStarValue)

	// Aggregate must be untouched after a failed update.
	assert.Equal(t, int64(1), s.FourStars)
	assert.Equal(t, int64(4), s.TotalStars)
}

func TestRatingStatistics_UpdateRating_EmptyBucketUnderflow(t *testing.T) {
	s := NewRatingStatistics(1)
	require.NoError(t, s.AddRating(4))

	assert.ErrorIs(t, s.UpdateRating(2, 5), ErrStatisticsUnderflow)
	assert.True(t, s.IsConsistent())
}

func TestRatingStatistics_RemoveRating(t *testing.T) {
	s := NewRatingStatistics(1)
	require.NoError(t, s.AddRating(5))
	require.NoError(t, s.AddRating(1))

	require.NoError(t, s.RemoveRating(5))

	assert.Equal(t, int64(1), s.TotalRatings)
	assert.Equal(t, int64(1), s.TotalStars)
	assert.Equal(t, int64(0), s.FiveStars)
	assert.True(t, s.IsConsistent())
}

func TestRatingStatistics_RemoveRating_Underflow(t *testing.T) {
	s := NewRatingStatistics(1)

	assert.ErrorIs(t, s.RemoveRating(3), ErrStatisticsUnderflow)

	require.NoError(t, s.AddRating(5))
	assert.ErrorIs(t, s.RemoveRating(3), ErrStatisticsUnderflow)
	assert.Equal(t, int64(1), s.TotalRatings)
}

func TestRatingStatistics_Average(t *testing.T) {
	tests := []struct {
		name  string
		stars []int
		want  float64
	}{
		{"no ratings", nil, 0.0},
		{"single rating", []int{4}, 4.0},
		{"exact half rounds up", []int{4, 3}, 3.5},
		{"repeating decimal", []int{5, 4, 1}, 3.3}, // 10/3 = 3.333...
		{"rounds up", []int{5, 5, 4}, 4.7},         // 14/3 = 4.666...
		{"all fives", []int{5, 5, 5, 5}, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRatingStatistics(1)
			for _, stars := range tt.stars {
				require.NoError(t, s.AddRating(stars))
			}
			assert.InDelta(t, tt.want, s.Average(), 0.0001)
		})
	}
}

func TestRatingStatistics_Average_HalfUpAtBoundary(t *testing.T) {
	// 7 stars over 2 ratings = 3.5 exactly; half-up keeps it at 3.5.
	s := NewRatingStatistics(1)
	require.NoError(t, s.AddRating(5))
	require.NoError(t, s.AddRating(2))
	assert.InDelta(t, 3.5, s.Average(), 0.0001)

	// 0.25 average positions: 9/4 = 2.25 -> 2.3 (half-up on the second decimal).
	s2 := NewRatingStatistics(1)
	for _, stars := range []int{1, 2, 2, 4} {
		require.NoError(t, s2.AddRating(stars))
	}
	assert.InDelta(t, 2.3, s2.Average(), 0.0001)
}

func TestRatingStatistics_FoldSequenceStaysConsistent(t *testing.T) {
	// Interleave adds, updates, and removes; the aggregate must match a
	// recount of the surviving ratings at every step.
	s := NewRatingStatistics(1)

	require.NoError(t, s.AddRating(5))
	require.NoError(t, s.AddRating(3))
	require.NoError(t, s.AddRating(3))
	require.NoError(t, s.UpdateRating(3, 1))
	require.NoError(t, s.RemoveRating(5))
	require.NoError(t, s.AddRating(4))
	require.NoError(t, s.UpdateRating(1, 2))

	// Surviving ratings: 3, 2, 4.
	assert.Equal(t, int64(3), s.TotalRatings)
	assert.Equal(t, int64(9), s.TotalStars)
	assert.True(t, s.IsConsistent())
	assert.InDelta(t, 3.0, s.Average(), 0.0001)
}

func TestRatingStatistics_Bucket(t *testing.T) {
	s := NewRatingStatistics(1)
	require.NoError(t, s.AddRating(2))

	count, err := s.Bucket(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = s.Bucket(9)
	assert.ErrorIs(t, err, ErrInvalidStarValue)
}

func TestRatingStatistics_IsConsistent_DetectsDrift(t *testing.T) {
	s := NewRatingStatistics(1)
	require.NoError(t, s.AddRating(5))

	s.TotalStars++ // simulate a corrupted row
	assert.False(t, s.IsConsistent())
}
