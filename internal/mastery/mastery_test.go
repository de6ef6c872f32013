package mastery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/wortbot/pkg/models"
)

func TestIsMastered(t *testing.T) {
	tests := []struct {
		name     string
		progress models.Progress
		want     bool
	}{
		{
			name:     "never played",
			progress: models.Progress{},
			want:     false,
		},
		{
			name:     "error rate exactly at ceiling",
			progress: models.Progress{Correct: 4, Incorrect: 1, CorrectStreak: 1},
			want:     false,
		},
		{
			name:     "both conditions satisfied",
			progress: models.Progress{Correct: 5, Incorrect: 0, CorrectStreak: 5},
			want:     true,
		},
		{
			name:     "streak boundary alone",
			progress: models.Progress{CorrectStreak: 4},
			want:     true,
		},
		{
			name:     "streak one short",
			progress: models.Progress{Correct: 3, CorrectStreak: 3},
			want:     false,
		},
		{
			name:     "volume with low error rate after a miss",
			progress: models.Progress{Correct: 9, Incorrect: 1, CorrectStreak: 0},
			want:     true,
		},
		{
			name:     "not enough plays",
			progress: models.Progress{Correct: 3, Incorrect: 0, CorrectStreak: 0},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMastered(tt.progress, DefaultCriteria()))
		})
	}
}

func TestIsMasteredZeroThresholdsNeverMasterUnplayedWord(t *testing.T) {
	c := Criteria{MinPlays: 0, MaxErrorRate: 0.5, StreakNeeded: 0}
	assert.False(t, IsMastered(models.Progress{}, c))

	p := models.Progress{}
	p.RecordAnswer(true, time.Now())
	assert.True(t, IsMastered(p, c))
}

func TestRecordedHistoryFromZero(t *testing.T) {
	c := DefaultCriteria()
	p := models.Progress{}
	now := time.Now()

	for i := 0; i < 3; i++ {
		p.RecordAnswer(true, now)
		assert.False(t, IsMastered(p, c))
	}
	p.RecordAnswer(true, now)
	assert.True(t, IsMastered(p, c), "fourth correct answer in a row reaches the streak")

	p.RecordAnswer(false, now)
	assert.False(t, IsMastered(p, c), "4/5 correct is an error rate of exactly 0.2")
}

func TestEvaluate(t *testing.T) {
	s := Evaluate(models.Progress{Correct: 6, Incorrect: 2, CorrectStreak: 1}, DefaultCriteria())
	assert.Equal(t, 8, s.TotalPlays)
	assert.InDelta(t, 0.25, s.ErrorRate, 1e-9)
	assert.False(t, s.IsMastered)
}

func TestCountMastered(t *testing.T) {
	progress := []models.Progress{
		{Correct: 5},
		{Correct: 1, Incorrect: 3},
		{Correct: 4, CorrectStreak: 4},
	}
	assert.Equal(t, 2, CountMastered(progress, DefaultCriteria()))
}

func TestCriteriaValidate(t *testing.T) {
	assert.NoError(t, DefaultCriteria().Validate())
	assert.Error(t, Criteria{MinPlays: -1}.Validate())
	assert.Error(t, Criteria{MaxErrorRate: 1.5}.Validate())
	assert.Error(t, Criteria{StreakNeeded: -2}.Validate())
}
