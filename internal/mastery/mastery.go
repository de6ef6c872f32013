package mastery

import (
	"fmt"

	"github.com/example/wortbot/pkg/models"
)

// Criteria holds the thresholds that decide whether a word is "mastered"
type Criteria struct {
	// Минимальное количество ответов для оценки по проценту ошибок
	MinPlays int
	// Потолок доли ошибок (строго меньше)
	MaxErrorRate float64
	// Количество правильных ответов подряд
	StreakNeeded int
}

// DefaultCriteria returns the thresholds used throughout the app
func DefaultCriteria() Criteria {
	return Criteria{
		MinPlays:     5,
		MaxErrorRate: 0.2,
		StreakNeeded: 4,
	}
}

// Validate checks the recognized ranges of every option
func (c Criteria) Validate() error {
	if c.MinPlays < 0 {
		return fmt.Errorf("min plays must be >= 0, got %d", c.MinPlays)
	}
	if c.MaxErrorRate < 0 || c.MaxErrorRate > 1 {
		return fmt.Errorf("max error rate must be in [0,1], got %v", c.MaxErrorRate)
	}
	if c.StreakNeeded < 0 {
		return fmt.Errorf("streak needed must be >= 0, got %d", c.StreakNeeded)
	}
	return nil
}

// Stats are the values derived from a progress record
type Stats struct {
	Correct       int
	Incorrect     int
	CorrectStreak int
	TotalPlays    int
	ErrorRate     float64
	IsMastered    bool
}

// Evaluate derives total plays, error rate and mastery from a progress record
func Evaluate(p models.Progress, c Criteria) Stats {
	return Stats{
		Correct:       p.Correct,
		Incorrect:     p.Incorrect,
		CorrectStreak: p.CorrectStreak,
		TotalPlays:    p.TotalPlays(),
		ErrorRate:     p.ErrorRate(),
		IsMastered:    IsMastered(p, c),
	}
}

// IsMastered determines if a word is considered "mastered".
// A word is mastered when either condition holds:
// 1. It has been played at least MinPlays times with an error rate below MaxErrorRate
// 2. The current correct streak reached StreakNeeded
func IsMastered(p models.Progress, c Criteria) bool {
	total := p.TotalPlays()
	byVolume := total >= c.MinPlays && total > 0 && p.ErrorRate() < c.MaxErrorRate
	byStreak := p.CorrectStreak >= c.StreakNeeded && p.CorrectStreak > 0
	return byVolume || byStreak
}

// CountMastered returns how many of the records are mastered
func CountMastered(progress []models.Progress, c Criteria) int {
	n := 0
	for _, p := range progress {
		if IsMastered(p, c) {
			n++
		}
	}
	return n
}
