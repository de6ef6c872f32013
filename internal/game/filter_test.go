package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/wortbot/internal/mastery"
	"github.com/example/wortbot/pkg/models"
)

func card(id string, w models.Word, plays int, errRate float64) Card {
	return Card{
		PlayableWord: models.PlayableWord{ID: id, Word: w},
		Stats:        mastery.Stats{TotalPlays: plays, ErrorRate: errRate},
	}
}

func TestFilterMatch(t *testing.T) {
	der := models.Word{Type: models.TypeNoun, Gender: "m", Difficulty: 2, CategoryID: 3}
	mit := models.Word{Type: models.TypePreposition, Case: "dativ", Difficulty: 1}
	gehen := models.Word{Type: models.TypeVerb, Difficulty: 2, Gender: "m"}

	tests := []struct {
		name   string
		filter Filter
		card   Card
		friend bool
		want   bool
	}{
		{"zero filter", Filter{}, card("1", der, 0, 0), false, true},
		{"type mismatch", Filter{Type: models.TypeVerb}, card("1", der, 0, 0), false, false},
		{"category", Filter{CategoryID: 3}, card("1", der, 0, 0), false, true},
		{"other category", Filter{CategoryID: 4}, card("1", der, 0, 0), false, false},
		{"difficulty", Filter{Difficulty: 1}, card("1", der, 0, 0), false, false},
		{"noun gender", Filter{Type: models.TypeNoun, Gender: "f"}, card("1", der, 0, 0), false, false},
		{"gender without noun type ignored", Filter{Gender: "f"}, card("1", gehen, 0, 0), false, true},
		{"case", Filter{Type: models.TypePreposition, Case: "dativ"}, card("2", mit, 0, 0), false, true},
		{"case mismatch", Filter{Type: models.TypePreposition, Case: "akkusativ"}, card("2", mit, 0, 0), false, false},
		{"new", Filter{Performance: PerformanceNew}, card("1", der, 2, 0), false, true},
		{"not new", Filter{Performance: PerformanceNew}, card("1", der, 3, 0), false, false},
		{"struggling", Filter{Performance: PerformanceStruggling}, card("1", der, 3, 0.34), false, true},
		{"struggling boundary", Filter{Performance: PerformanceStruggling}, card("1", der, 10, 0.3), false, false},
		{"difficult", Filter{Performance: PerformanceDifficult}, card("1", der, 5, 0.6), false, true},
		{"difficult too few plays", Filter{Performance: PerformanceDifficult}, card("1", der, 4, 0.75), false, false},
		{"performance ignored for friends", Filter{Performance: PerformanceDifficult}, card("1", der, 0, 0), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.card, tt.friend))
		})
	}
}

func TestFilterApplyKeepsOrder(t *testing.T) {
	cards := []Card{
		card("1", models.Word{Type: models.TypeNoun}, 0, 0),
		card("2", models.Word{Type: models.TypeVerb}, 0, 0),
		card("3", models.Word{Type: models.TypeNoun}, 0, 0),
	}
	got := Filter{Type: models.TypeNoun}.Apply(cards, false)
	assert.Equal(t, []string{"1", "3"}, IDs(got))
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{Difficulty: 2}.IsZero())
}
