package game

import (
	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

// Card is a playable word annotated with the learner's progress
type Card struct {
	models.PlayableWord
	Stats mastery.Stats
	// Turn numbers the draws of a session, 0 outside of one
	Turn int
}

// BuildDeck expands words into cards and attaches progress stats.
// Derived cards share the progress of their base word.
func BuildDeck(words []models.Word, progress []models.Progress, criteria mastery.Criteria) []Card {
	byWord := make(map[string]models.Progress, len(progress))
	for _, p := range progress {
		byWord[p.WordID] = p
	}

	var deck []Card
	for _, pw := range models.ExpandAll(words) {
		p := byWord[pw.Word.Key()]
		deck = append(deck, Card{
			PlayableWord: pw,
			Stats:        mastery.Evaluate(p, criteria),
		})
	}
	return deck
}

// IDs returns the card ids in deck order
func IDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
