package models

import "time"

// DayLayout is the storage format of calendar days
const DayLayout = "2006-01-02"

// DailyStat is the per-day activity/mastery snapshot of a learner
type DailyStat struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Day           string    `json:"day" db:"day"` // YYYY-MM-DD
	MasteredCount int       `json:"mastered_count" db:"mastered_count"`
	PlayedCount   int       `json:"played_count" db:"played_count"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Date parses Day, returning false when the stored value is malformed
func (d DailyStat) Date() (time.Time, bool) {
	t, err := time.Parse(DayLayout, d.Day)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayOf formats a timestamp as a calendar day in UTC
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// SentenceAttempt is one scored translation in sentence mode
type SentenceAttempt struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Sentence         string    `json:"sentence" db:"sentence"`
	IdealTranslation string    `json:"ideal_translation" db:"ideal_translation"`
	UserTranslation  string    `json:"user_translation" db:"user_translation"`
	Score            int       `json:"score" db:"score"` // 0-10
	Feedback         string    `json:"feedback" db:"feedback"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// GameSession is a finished round of the flashcard game
type GameSession struct {
	ID         string    `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Mode       string    `json:"mode" db:"mode"`
	Answered   int       `json:"answered" db:"answered"`
	Correct    int       `json:"correct" db:"correct"`
	Incorrect  int       `json:"incorrect" db:"incorrect"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}

// UnlockedAchievement records when a learner unlocked an achievement
type UnlockedAchievement struct {
	UserID        int64     `json:"user_id" db:"user_id"`
	AchievementID string    `json:"achievement_id" db:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at" db:"unlocked_at"`
}
