package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/wortbot/internal/excel"
	"github.com/example/wortbot/internal/game"
	"github.com/example/wortbot/pkg/models"
)

// NewWord is a word parsed from /add together with its category name
type NewWord struct {
	Word     models.Word
	Category string
}

var typeAliases = map[string]models.WordType{
	"noun": models.TypeNoun, "n": models.TypeNoun, "sust": models.TypeNoun,
	"verb": models.TypeVerb, "v": models.TypeVerb,
	"adj": models.TypeAdjective, "adjective": models.TypeAdjective,
	"prep": models.TypePreposition, "preposition": models.TypePreposition,
	"other": models.TypeOther, "o": models.TypeOther,
}

var articles = map[string]string{"der": "m", "die": "f", "das": "n"}

// ParseWordLine reads one vocabulary line:
//
//	der Bahnhof = estación ; #Reisen
//	kommen = venir ; verb ; an:llegar|mit:acompañar ; d2
//	mit = con ; prep ; dativ
//
// A leading article makes the word a noun of that gender.
func ParseWordLine(line string) (NewWord, error) {
	german, rest, ok := strings.Cut(line, "=")
	german, rest = strings.TrimSpace(german), strings.TrimSpace(rest)
	if !ok || german == "" || rest == "" {
		return NewWord{}, fmt.Errorf("expected \"German = Spanish\", got %q", line)
	}

	parts := strings.Split(rest, ";")
	nw := NewWord{Word: models.Word{
		German:     german,
		Spanish:    strings.TrimSpace(parts[0]),
		Type:       models.TypeOther,
		Difficulty: 3,
	}}
	if nw.Word.Spanish == "" {
		return NewWord{}, fmt.Errorf("missing Spanish translation in %q", line)
	}

	if fields := strings.Fields(german); len(fields) > 1 {
		if gender, ok := articles[strings.ToLower(fields[0])]; ok {
			nw.Word.German = strings.Join(fields[1:], " ")
			nw.Word.Type = models.TypeNoun
			nw.Word.Gender = gender
		}
	}

	for _, raw := range parts[1:] {
		opt := strings.TrimSpace(raw)
		lower := strings.ToLower(opt)
		switch {
		case opt == "":
		case strings.HasPrefix(opt, "#"):
			nw.Category = strings.TrimSpace(opt[1:])
		case typeAliases[lower] != "":
			nw.Word.Type = typeAliases[lower]
		case len(lower) == 2 && lower[0] == 'd' && lower[1] >= '1' && lower[1] <= '5':
			nw.Word.Difficulty = int(lower[1] - '0')
		case excel.ParseGender(lower) != "" && nw.Word.Type == models.TypeNoun:
			nw.Word.Gender = excel.ParseGender(lower)
		case strings.Contains(opt, ":"):
			prefixes, err := excel.ParsePrefixes(opt)
			if err != nil {
				return NewWord{}, err
			}
			nw.Word.Prefixes = prefixes
		case lower == "regular" || lower == "irregular":
			nw.Word.IsRegular = lower == "regular"
		case nw.Word.Type == models.TypePreposition:
			nw.Word.Case = lower
		default:
			return NewWord{}, fmt.Errorf("unknown option %q", opt)
		}
	}

	if len(nw.Word.Prefixes) > 0 && nw.Word.Type != models.TypeVerb {
		return NewWord{}, fmt.Errorf("separable prefixes are only allowed on verbs")
	}
	return nw, nil
}

// PlayArgs are the parsed arguments of /play
type PlayArgs struct {
	Mode     game.Mode
	Filter   game.Filter
	Category string // resolved to Filter.CategoryID by the caller
}

// ParsePlayArgs reads "/play [mode] [key=value ...]".
// Keys: type, gender, case, difficulty, perf, category.
func ParsePlayArgs(args string) (PlayArgs, error) {
	pa := PlayArgs{Mode: game.ModeRandom}
	for i, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			if i == 0 {
				pa.Mode = game.ParseMode(field)
				if string(pa.Mode) != strings.ToLower(field) {
					return pa, fmt.Errorf("unknown mode %q, use random, review or smart", field)
				}
				continue
			}
			return pa, fmt.Errorf("expected key=value, got %q", field)
		}

		value = strings.TrimSpace(value)
		switch strings.ToLower(key) {
		case "type":
			t, ok := typeAliases[strings.ToLower(value)]
			if !ok {
				return pa, fmt.Errorf("unknown word type %q", value)
			}
			pa.Filter.Type = t
		case "gender":
			pa.Filter.Gender = excel.ParseGender(value)
			if pa.Filter.Gender == "" {
				return pa, fmt.Errorf("unknown gender %q", value)
			}
		case "case":
			pa.Filter.Case = strings.ToLower(value)
		case "difficulty", "d":
			d, err := strconv.Atoi(value)
			if err != nil || d < 1 || d > 5 {
				return pa, fmt.Errorf("difficulty must be 1-5, got %q", value)
			}
			pa.Filter.Difficulty = d
		case "perf", "performance":
			switch strings.ToLower(value) {
			case game.PerformanceNew, game.PerformanceStruggling, game.PerformanceDifficult:
				pa.Filter.Performance = strings.ToLower(value)
			default:
				return pa, fmt.Errorf("performance must be new, struggling or difficult")
			}
		case "category", "cat":
			pa.Category = value
		default:
			return pa, fmt.Errorf("unknown filter %q", key)
		}
	}
	if pa.Filter.Gender != "" && pa.Filter.Type == "" {
		pa.Filter.Type = models.TypeNoun
	}
	if pa.Filter.Case != "" && pa.Filter.Type == "" {
		pa.Filter.Type = models.TypePreposition
	}
	return pa, nil
}

// callback data is "action" or "action:argument"
func splitCallback(data string) (string, string) {
	action, arg, _ := strings.Cut(data, ":")
	return action, arg
}

func callbackData(action string, arg interface{}) string {
	return fmt.Sprintf("%s:%v", action, arg)
}

// progressBar renders a ten-step bar for value out of max
func progressBar(value, max int) string {
	if max <= 0 {
		return strings.Repeat("░", 10)
	}
	filled := value * 10 / max
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}
