package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSchedule(t *testing.T) {
	s := NewSchedule()
	assert.Equal(t, StatusNew, s.Status)
	assert.Zero(t, s.Repetition)
	assert.Zero(t, s.Interval)
	assert.Equal(t, DefaultEaseFactor, s.EaseFactor)
	assert.Nil(t, s.NextReview)
}

func TestScheduleDueAt(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	tests := []struct {
		name string
		next *time.Time
		want bool
	}{
		{"no next review", nil, false},
		{"in the past", &past, true},
		{"exactly now", &now, true},
		{"in the future", &future, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Schedule{Status: StatusReview, NextReview: tt.next}
			assert.Equal(t, tt.want, s.DueAt(now))
		})
	}
}
