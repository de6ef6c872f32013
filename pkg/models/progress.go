package models

import "time"

// Progress tracks a learner's answers for one word.
// WordID is the base word id in string form, as used by playable words.
type Progress struct {
	ID            int64      `json:"id" db:"id"`
	UserID        int64      `json:"user_id" db:"user_id"`
	WordID        string     `json:"word_id" db:"word_id"`
	Correct       int        `json:"correct" db:"correct"`
	Incorrect     int        `json:"incorrect" db:"incorrect"`
	CorrectStreak int        `json:"correct_streak" db:"correct_streak"`
	LastReviewed  *time.Time `json:"last_reviewed" db:"last_reviewed"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// TotalPlays is the number of recorded answers
func (p Progress) TotalPlays() int {
	return p.Correct + p.Incorrect
}

// ErrorRate is incorrect/totalPlays, 0 for a word never played
func (p Progress) ErrorRate() float64 {
	total := p.TotalPlays()
	if total == 0 {
		return 0
	}
	return float64(p.Incorrect) / float64(total)
}

// RecordAnswer applies one answer to the counters
func (p *Progress) RecordAnswer(correct bool, at time.Time) {
	if correct {
		p.Correct++
		p.CorrectStreak++
	} else {
		p.Incorrect++
		p.CorrectStreak = 0
	}
	p.LastReviewed = &at
}

// Normalize clamps counters loaded from storage: no negatives and
// a streak never longer than the number of correct answers.
func (p *Progress) Normalize() {
	if p.Correct < 0 {
		p.Correct = 0
	}
	if p.Incorrect < 0 {
		p.Incorrect = 0
	}
	if p.CorrectStreak < 0 {
		p.CorrectStreak = 0
	}
	if p.CorrectStreak > p.Correct {
		p.CorrectStreak = p.Correct
	}
}
