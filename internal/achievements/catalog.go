package achievements

import "github.com/example/wortbot/pkg/models"

// Category groups achievements on the achievements screen
type Category struct {
	ID   string
	Name string
	Icon string
}

// Categories in display order
var Categories = []Category{
	{ID: "words", Name: "Words added", Icon: "📚"},
	{ID: "mastery", Name: "Mastery", Icon: "⭐"},
	{ID: "streaks", Name: "Streaks", Icon: "🔥"},
	{ID: "friends", Name: "Social", Icon: "👥"},
	{ID: "sentences", Name: "Sentence mode", Icon: "📝"},
	{ID: "explorer", Name: "Explorer", Icon: "🗺️"},
	{ID: "dedication", Name: "Dedication", Icon: "💪"},
	{ID: "perfection", Name: "Perfectionist", Icon: "💎"},
	{ID: "collector", Name: "Collector", Icon: "🎯"},
	{ID: "other", Name: "Special", Icon: "✨"},
}

// Predicate decides whether an achievement is unlocked
type Predicate func(a Aggregates) bool

// Definition is a static catalog entry
type Definition struct {
	ID          string
	Category    string
	Title       string
	Description string
	Icon        string
	Unlocked    Predicate
}

func ownWords(n int) Predicate      { return func(a Aggregates) bool { return a.OwnWords >= n } }
func allWords(n int) Predicate      { return func(a Aggregates) bool { return a.AllWords >= n } }
func mastered(n int) Predicate      { return func(a Aggregates) bool { return a.Mastered >= n } }
func answerStreak(n int) Predicate  { return func(a Aggregates) bool { return a.MaxStreak >= n } }
func dayRun(n int) Predicate        { return func(a Aggregates) bool { return a.LongestDayRun >= n } }
func activeDays(n int) Predicate    { return func(a Aggregates) bool { return a.ActiveDays >= n } }
func friends(n int) Predicate       { return func(a Aggregates) bool { return a.Friends >= n } }
func sentences(n int) Predicate     { return func(a Aggregates) bool { return a.Sentences >= n } }
func goodSentences(n int) Predicate { return func(a Aggregates) bool { return a.GoodSentenceStreak >= n } }
func totalCorrect(n int) Predicate  { return func(a Aggregates) bool { return a.TotalCorrect >= n } }
func totalPlays(n int) Predicate    { return func(a Aggregates) bool { return a.TotalPlays >= n } }
func prefixes(n int) Predicate      { return func(a Aggregates) bool { return a.Prefixes >= n } }

func masteredOfType(t models.WordType, n int) Predicate {
	return func(a Aggregates) bool { return a.MasteredByType[t] >= n }
}

// Catalog lists every achievement in evaluation order
var Catalog = []Definition{
	// words added (imported words do not count)
	{ID: "first_word", Category: "words", Title: "First word", Description: "Add your first word", Icon: "📝", Unlocked: ownWords(1)},
	{ID: "add_10", Category: "words", Title: "Collector: 10", Description: "Add 10 words", Icon: "📚", Unlocked: ownWords(10)},
	{ID: "add_50", Category: "words", Title: "Librarian: 50", Description: "Add 50 words", Icon: "🏛️", Unlocked: ownWords(50)},
	{ID: "bibliotecario_2", Category: "words", Title: "Librarian II", Description: "Add 100 words", Icon: "📖", Unlocked: ownWords(100)},
	{ID: "bibliotecario_3", Category: "words", Title: "Librarian III", Description: "Add 200 words", Icon: "📚", Unlocked: ownWords(200)},
	{ID: "bibliotecario_4", Category: "words", Title: "Librarian IV", Description: "Add 500 words", Icon: "🏰", Unlocked: ownWords(500)},
	{ID: "bibliotecario_5", Category: "words", Title: "Librarian V", Description: "Add 1000 words", Icon: "🏛️", Unlocked: ownWords(1000)},
	{ID: "bibliotecario_6", Category: "words", Title: "Librarian VI", Description: "Add 1500 words", Icon: "👑", Unlocked: ownWords(1500)},
	{ID: "bibliotecario_7", Category: "words", Title: "Librarian VII", Description: "Add 2000 words", Icon: "🌟", Unlocked: ownWords(2000)},
	{ID: "wortmeister", Category: "other", Title: "Wortmeister", Description: "Add 2500 words", Icon: "🏆", Unlocked: ownWords(2500)},

	// mastery
	{ID: "first_master", Category: "mastery", Title: "First mastery", Description: "Master your first word", Icon: "✨", Unlocked: mastered(1)},
	{ID: "aprendiz_5", Category: "mastery", Title: "Apprentice", Description: "Master 5 words", Icon: "🌱", Unlocked: mastered(5)},
	{ID: "debutante_10", Category: "mastery", Title: "Debutant", Description: "Master 10 words", Icon: "⭐", Unlocked: mastered(10)},
	{ID: "estudiante_25", Category: "mastery", Title: "Student", Description: "Master 25 words", Icon: "📖", Unlocked: mastered(25)},
	{ID: "experto_50", Category: "mastery", Title: "Expert", Description: "Master 50 words", Icon: "🎓", Unlocked: mastered(50)},
	{ID: "maestro_100", Category: "mastery", Title: "Master", Description: "Master 100 words", Icon: "🎯", Unlocked: mastered(100)},
	{ID: "maestro_250", Category: "mastery", Title: "Grandmaster", Description: "Master 250 words", Icon: "👑", Unlocked: mastered(250)},
	{ID: "virtuoso", Category: "mastery", Title: "Virtuoso", Description: "Master 500 words", Icon: "✨", Unlocked: mastered(500)},
	{ID: "sprachgelehrter", Category: "mastery", Title: "Sprachgelehrter", Description: "Master 1000 words", Icon: "🔮", Unlocked: mastered(1000)},
	{ID: "sprachmeister", Category: "mastery", Title: "Sprachmeister", Description: "Master 1500 words", Icon: "👑", Unlocked: mastered(1500)},

	// streaks
	{ID: "daily_7", Category: "streaks", Title: "Streak: 7 days", Description: "Play 7 days in a row", Icon: "🔥", Unlocked: dayRun(7)},
	{ID: "daily_14", Category: "streaks", Title: "Streak: 14 days", Description: "Play 14 days in a row", Icon: "🌡️", Unlocked: dayRun(14)},
	{ID: "daily_30", Category: "streaks", Title: "Streak: 30 days", Description: "Play 30 days in a row", Icon: "⚡", Unlocked: dayRun(30)},
	{ID: "streak_5", Category: "streaks", Title: "Streak: 5 answers", Description: "Answer one word right 5 times in a row", Icon: "🎯", Unlocked: answerStreak(5)},
	{ID: "streak_10", Category: "streaks", Title: "Streak: 10 answers", Description: "Answer one word right 10 times in a row", Icon: "🔝", Unlocked: answerStreak(10)},
	{ID: "streak_25", Category: "streaks", Title: "Streak: 25 answers", Description: "Answer one word right 25 times in a row", Icon: "💥", Unlocked: answerStreak(25)},
	{ID: "streak_50", Category: "streaks", Title: "Streak: 50 answers", Description: "Answer one word right 50 times in a row", Icon: "🚀", Unlocked: answerStreak(50)},

	// friends
	{ID: "friend_1", Category: "friends", Title: "Social", Description: "Connect with a friend", Icon: "👥", Unlocked: friends(1)},
	{ID: "friend_5", Category: "friends", Title: "Networking: 5", Description: "Connect with 5 friends", Icon: "👫", Unlocked: friends(5)},
	{ID: "friend_10", Category: "friends", Title: "Influencer", Description: "Connect with 10 friends", Icon: "🌐", Unlocked: friends(10)},

	// sentence mode
	{ID: "perfect_sentence", Category: "sentences", Title: "Linguistic perfection", Description: "Score 10/10 on a sentence", Icon: "📋",
		Unlocked: func(a Aggregates) bool { return a.PerfectSentences >= 1 }},
	{ID: "sentences_5", Category: "sentences", Title: "Sentence practitioner", Description: "Play 5 sentences", Icon: "📝", Unlocked: sentences(5)},
	{ID: "sentences_25", Category: "sentences", Title: "Sentence master", Description: "Play 25 sentences", Icon: "🎓", Unlocked: sentences(25)},
	{ID: "sentences_100", Category: "sentences", Title: "Sentence scholar", Description: "Play 100 sentences", Icon: "📚", Unlocked: sentences(100)},
	{ID: "sentences_250", Category: "sentences", Title: "Sentence polyglot", Description: "Play 250 sentences", Icon: "🗣️", Unlocked: sentences(250)},
	{ID: "good_sentences_5", Category: "sentences", Title: "Fluency: 5 sentences", Description: "Score above 7/10 on 5 sentences in a row", Icon: "⭐", Unlocked: goodSentences(5)},
	{ID: "good_sentences_10", Category: "sentences", Title: "Fluency: 10 sentences", Description: "Score above 7/10 on 10 sentences in a row", Icon: "✨", Unlocked: goodSentences(10)},

	// words added, including imported ones
	{ID: "bibliotecario_8", Category: "words", Title: "Librarian VIII", Description: "Collect 3000 words", Icon: "🏛️", Unlocked: allWords(3000)},
	{ID: "bibliotecario_9", Category: "words", Title: "Librarian IX", Description: "Collect 4000 words", Icon: "🏰", Unlocked: allWords(4000)},
	{ID: "bibliotecario_maestro", Category: "words", Title: "Supreme librarian", Description: "Collect 5000 words", Icon: "👑", Unlocked: allWords(5000)},

	{ID: "maestro_2000", Category: "mastery", Title: "Polymath", Description: "Master 2000 words", Icon: "🧠", Unlocked: mastered(2000)},
	{ID: "maestro_3000", Category: "mastery", Title: "Living encyclopedia", Description: "Master 3000 words", Icon: "📕", Unlocked: mastered(3000)},

	// explorer
	{ID: "correct_50", Category: "explorer", Title: "Sharpshooter: 50", Description: "Give 50 correct answers", Icon: "✅", Unlocked: totalCorrect(50)},
	{ID: "correct_100", Category: "explorer", Title: "Sharpshooter: 100", Description: "Give 100 correct answers", Icon: "🎯", Unlocked: totalCorrect(100)},
	{ID: "correct_500", Category: "explorer", Title: "Sharpshooter: 500", Description: "Give 500 correct answers", Icon: "🔥", Unlocked: totalCorrect(500)},
	{ID: "correct_1000", Category: "explorer", Title: "Sharpshooter: 1000", Description: "Give 1000 correct answers", Icon: "⚡", Unlocked: totalCorrect(1000)},
	{ID: "played_50", Category: "explorer", Title: "Active player", Description: "Answer 50 cards", Icon: "🎮", Unlocked: totalPlays(50)},
	{ID: "played_200", Category: "explorer", Title: "Tireless player", Description: "Answer 200 cards", Icon: "👾", Unlocked: totalPlays(200)},
	{ID: "sentence_scholar", Category: "explorer", Title: "Sentence scholar", Description: "Complete 50 sentences", Icon: "📚", Unlocked: sentences(50)},
	{ID: "versatile_learner", Category: "explorer", Title: "Versatile learner", Description: "Add a word, play, practice a sentence and make a friend", Icon: "🎯",
		Unlocked: func(a Aggregates) bool {
			return a.OwnWords >= 1 && a.TotalPlays >= 1 && a.Sentences >= 1 && a.Friends >= 1
		}},

	// dedication
	{ID: "day_3", Category: "dedication", Title: "Committed beginner", Description: "Play on 3 different days", Icon: "📅", Unlocked: activeDays(3)},
	{ID: "day_10", Category: "dedication", Title: "Dedicated player", Description: "Play on 10 different days", Icon: "🗓️", Unlocked: activeDays(10)},
	{ID: "day_30", Category: "dedication", Title: "Veteran", Description: "Play on 30 different days", Icon: "⏳", Unlocked: activeDays(30)},
	{ID: "day_100", Category: "dedication", Title: "Iron will", Description: "Play on 100 different days", Icon: "🛡️", Unlocked: activeDays(100)},
	{ID: "streak_60", Category: "dedication", Title: "Unstoppable", Description: "Answer one word right 60 times in a row", Icon: "⚡", Unlocked: answerStreak(60)},
	{ID: "marathon", Category: "dedication", Title: "Language marathon", Description: "Play 100 days in a row", Icon: "🏃", Unlocked: dayRun(100)},

	// perfection
	{ID: "perfect_start", Category: "perfection", Title: "Perfect start", Description: "Finish your first game without mistakes", Icon: "✨",
		Unlocked: func(a Aggregates) bool { return a.PerfectStart }},
	{ID: "perfect_game", Category: "perfection", Title: "Flawless game", Description: "Finish a game of at least 10 cards without mistakes", Icon: "💯",
		Unlocked: func(a Aggregates) bool { return a.PerfectGame }},
	{ID: "accuracy_90", Category: "perfection", Title: "Precision master", Description: "Reach 90% overall accuracy", Icon: "🎯",
		Unlocked: func(a Aggregates) bool { return a.TotalPlays > 0 && a.Accuracy() >= 0.9 }},
	{ID: "sentences_perfect_5", Category: "perfection", Title: "Perfect translator", Description: "Score 10/10 on 5 sentences", Icon: "📜",
		Unlocked: func(a Aggregates) bool { return a.PerfectSentences >= 5 }},

	// collector
	{ID: "noun_master", Category: "collector", Title: "Noun master", Description: "Master 50 nouns", Icon: "📦", Unlocked: masteredOfType(models.TypeNoun, 50)},
	{ID: "verb_master", Category: "collector", Title: "Verb master", Description: "Master 50 verbs", Icon: "⚡", Unlocked: masteredOfType(models.TypeVerb, 50)},
	{ID: "adjective_master", Category: "collector", Title: "Adjective master", Description: "Master 25 adjectives", Icon: "🎨", Unlocked: masteredOfType(models.TypeAdjective, 25)},
	{ID: "type_master", Category: "collector", Title: "Epic collector", Description: "Master at least 30 nouns, verbs, adjectives and prepositions each", Icon: "🏆",
		Unlocked: func(a Aggregates) bool {
			for _, t := range []models.WordType{models.TypeNoun, models.TypeVerb, models.TypeAdjective, models.TypePreposition} {
				if a.MasteredByType[t] < 30 {
					return false
				}
			}
			return true
		}},
	{ID: "word_5000", Category: "collector", Title: "Mega collector", Description: "Collect 5000 words in total", Icon: "📊", Unlocked: allWords(5000)},

	// special
	{ID: "prefixes_5", Category: "other", Title: "Prefixer", Description: "Add 5 separable prefixes", Icon: "⚙️", Unlocked: prefixes(5)},
	{ID: "prefixes_50", Category: "other", Title: "Prefix king", Description: "Add 50 separable prefixes", Icon: "👑", Unlocked: prefixes(50)},
	{ID: "first_month", Category: "other", Title: "First month", Description: "Complete your first month with the bot", Icon: "🎂",
		Unlocked: func(a Aggregates) bool { return a.ActiveDays > 0 && a.DaysSinceJoin >= 30 }},
	{ID: "trilingual_ambition", Category: "other", Title: "Trilingual ambition", Description: "Create 3 word categories", Icon: "🌍",
		Unlocked: func(a Aggregates) bool { return a.Categories >= 3 }},
}

var byID = func() map[string]Definition {
	m := make(map[string]Definition, len(Catalog))
	for _, d := range Catalog {
		m[d.ID] = d
	}
	return m
}()

// Lookup finds a catalog entry by id
func Lookup(id string) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// InCategory returns the catalog entries of one category in catalog order
func InCategory(category string) []Definition {
	var out []Definition
	for _, d := range Catalog {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}
