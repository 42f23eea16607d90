package sm2

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/recall/internal/domain"
)

var now = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

func reviewState(rep, interval int, ef float64) domain.Schedule {
	due := now
	return domain.Schedule{
		Status:     domain.StatusReview,
		Repetition: rep,
		Interval:   interval,
		EaseFactor: ef,
		NextReview: &due,
	}
}

func TestLearn(t *testing.T) {
	s := New(DefaultUnit)
	got := s.Learn(now)

	assert.Equal(t, domain.StatusReview, got.Status)
	assert.Equal(t, 0, got.Repetition)
	assert.Equal(t, 1, got.Interval)
	assert.Equal(t, 2.5, got.EaseFactor)
	require.NotNil(t, got.NextReview)
	assert.Equal(t, now.Add(24*time.Hour), *got.NextReview)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name     string
		cur      domain.Schedule
		grade    Grade
		wantRep  int
		wantIvl  int
		wantEase float64
	}{
		{"first pass", reviewState(0, 1, 2.5), Good, 1, 1, 2.5},
		{"second pass is six", reviewState(1, 1, 2.5), Good, 2, 6, 2.5},
		{"third pass good", reviewState(2, 6, 2.5), Good, 3, 15, 2.5},
		{"third pass easy", reviewState(2, 6, 2.5), Easy, 3, 16, 2.6},
		{"third pass hard", reviewState(2, 6, 2.5), Hard, 3, 14, 2.36},
		{"hard at the floor", reviewState(5, 10, 1.3), Hard, 6, 13, 1.3},
		{"fail resets", reviewState(7, 120, 2.1), Again, 0, 1, 2.1},
		{"fail clamps ease", reviewState(3, 9, 1.1), Again, 0, 1, 1.3},
		{"fixed regime ignores ease", reviewState(1, 1, 1.7), Hard, 2, 6, 1.7},
	}

	s := New(DefaultUnit)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Advance(tt.cur, tt.grade, now)
			require.NoError(t, err)

			assert.Equal(t, domain.StatusReview, got.Status)
			assert.Equal(t, tt.wantRep, got.Repetition)
			assert.Equal(t, tt.wantIvl, got.Interval)
			assert.InDelta(t, tt.wantEase, got.EaseFactor, 1e-9)
			require.NotNil(t, got.NextReview)
			assert.Equal(t, now.Add(time.Duration(tt.wantIvl)*24*time.Hour), *got.NextReview)
		})
	}
}

func TestAdvanceInvalidGrade(t *testing.T) {
	s := New(DefaultUnit)
	cur := reviewState(2, 6, 2.5)
	for _, g := range []Grade{0, 2, 6, -1} {
		got, err := s.Advance(cur, g, now)
		assert.ErrorIs(t, err, ErrInvalidGrade, "grade %d", g)
		assert.Equal(t, cur, got)
	}
}

func TestAdvanceInvariants(t *testing.T) {
	s := New(DefaultUnit)
	cur := s.Learn(now)
	grades := []Grade{Hard, Hard, Again, Hard, Hard, Hard, Hard, Again, Easy, Good, Hard, Hard, Hard}
	for i, g := range grades {
		var err error
		cur, err = s.Advance(cur, g, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cur.EaseFactor, domain.MinEaseFactor, "step %d", i)
		assert.GreaterOrEqual(t, cur.Repetition, 0, "step %d", i)
		assert.GreaterOrEqual(t, cur.Interval, 0, "step %d", i)
	}
}

func TestPreview(t *testing.T) {
	s := New(DefaultUnit)

	for rep := 0; rep <= 2; rep++ {
		_, ok := s.Preview(reviewState(rep, 6, 2.5))
		assert.False(t, ok, "repetition %d", rep)
	}

	p, ok := s.Preview(reviewState(3, 15, 2.5))
	require.True(t, ok)
	assert.Equal(t, Preview{Hard: 35, Good: 38, Easy: 39}, p)
	assert.LessOrEqual(t, p.Hard, p.Good)
	assert.LessOrEqual(t, p.Good, p.Easy)

	// Preview must agree with what Advance actually produces.
	cur := reviewState(4, 40, 1.9)
	p, ok = s.Preview(cur)
	require.True(t, ok)
	for g, want := range map[Grade]int{Hard: p.Hard, Good: p.Good, Easy: p.Easy} {
		got, err := s.Advance(cur, g, now)
		require.NoError(t, err)
		assert.Equal(t, want, got.Interval, "grade %s", g)
	}
}

func TestDueUsesUnit(t *testing.T) {
	s := New(time.Second)
	assert.Equal(t, now.Add(6*time.Second), s.Due(now, 6))

	got := s.Learn(now)
	assert.Equal(t, now.Add(time.Second), *got.NextReview)

	assert.Equal(t, DefaultUnit, New(0).Unit)
	assert.Equal(t, now.Add(48*time.Hour), Scheduler{}.Due(now, 2))
}

func TestUpdateEaseFactor(t *testing.T) {
	assert.InDelta(t, 2.5, UpdateEaseFactor(2.5, Good), 1e-9)
	assert.InDelta(t, 2.6, UpdateEaseFactor(2.5, Easy), 1e-9)
	assert.InDelta(t, 2.36, UpdateEaseFactor(2.5, Hard), 1e-9)
	assert.Equal(t, domain.MinEaseFactor, UpdateEaseFactor(1.31, Hard))
}

func TestAdvance_LongStreakStaysInFuture(t *testing.T) {
	s := New(DefaultUnit)
	cur := s.Learn(now)
	for i := 0; i < 60; i++ {
		next, err := s.Advance(cur, Easy, now)
		require.NoError(t, err)
		require.NotNil(t, next.NextReview)
		assert.True(t, next.NextReview.After(now), "review %d: interval %d due %s", i, next.Interval, next.NextReview)
		assert.GreaterOrEqual(t, next.Interval, cur.Interval, "review %d", i)
		cur = next
	}
	assert.Equal(t, MaxInterval, cur.Interval)
}

func TestDue_Saturates(t *testing.T) {
	s := New(time.Hour * 8760)
	assert.Equal(t, now.Add(time.Duration(math.MaxInt64)), s.Due(now, 1_000_000))
	assert.Equal(t, now.Add(2*8760*time.Hour), s.Due(now, 2))
}
