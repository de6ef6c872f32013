package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WordType is the grammatical type of a vocabulary entry
type WordType string

const (
	TypeNoun        WordType = "noun"
	TypeVerb        WordType = "verb"
	TypeAdjective   WordType = "adjective"
	TypePreposition WordType = "preposition"
	TypeOther       WordType = "other"
)

// WordTypes lists the closed set of grammatical types in display order
var WordTypes = []WordType{TypeNoun, TypeVerb, TypeAdjective, TypePreposition, TypeOther}

// ParseWordType maps user input to a WordType, falling back to TypeOther
func ParseWordType(s string) WordType {
	switch WordType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeNoun:
		return TypeNoun
	case TypeVerb:
		return TypeVerb
	case TypeAdjective:
		return TypeAdjective
	case TypePreposition:
		return TypePreposition
	default:
		return TypeOther
	}
}

// Articles maps noun gender to the German definite article
var Articles = map[string]string{"m": "der", "f": "die", "n": "das"}

// SeparablePrefix is a verb prefix together with the meaning of the combined verb
type SeparablePrefix struct {
	Prefix  string `json:"prefix"`
	Meaning string `json:"meaning"`
}

// SeparablePrefixes is stored as a JSON text column
type SeparablePrefixes []SeparablePrefix

// Value implements driver.Valuer
func (p SeparablePrefixes) Value() (driver.Value, error) {
	if len(p) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (p *SeparablePrefixes) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type for separable prefixes: %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Word represents a German vocabulary entry owned by one learner
type Word struct {
	ID           int64             `json:"id" db:"id"`
	UserID       int64             `json:"user_id" db:"user_id"`
	German       string            `json:"german" db:"german"`
	Spanish      string            `json:"spanish" db:"spanish"`
	Type         WordType          `json:"type" db:"type"`
	Difficulty   int               `json:"difficulty" db:"difficulty"` // 1-5
	CategoryID   int64             `json:"category_id" db:"category_id"` // 0 = no category
	Gender       string            `json:"gender" db:"gender"`           // nouns: m, f, n
	Case         string            `json:"case" db:"grammatical_case"`   // prepositions
	IsRegular    bool              `json:"is_regular" db:"is_regular"`   // verbs
	PastTense    string            `json:"past_tense" db:"past_tense"`
	Participle   string            `json:"participle" db:"participle"`
	Prefixes     SeparablePrefixes `json:"separable_prefixes" db:"separable_prefixes"`
	ImportedFrom string            `json:"imported_from" db:"imported_from"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// IsImported reports whether the word was copied from another learner
func (w Word) IsImported() bool {
	return w.ImportedFrom != ""
}

// Key returns the word id in the string form used by playable words and progress
func (w Word) Key() string {
	return strconv.FormatInt(w.ID, 10)
}

// ClampDifficulty keeps a difficulty level inside 1..5
func ClampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}

// PlayableWord is a card shown in the game: a base word or one derived from a separable prefix
type PlayableWord struct {
	ID        string
	BaseID    int64
	German    string
	Spanish   string
	Prefix    string
	IsDerived bool
	Word      Word
}

// Expand returns the base word followed by one derived word per separable prefix.
// Derived words are display-only and never persisted.
func Expand(w Word) []PlayableWord {
	out := []PlayableWord{{
		ID:      w.Key(),
		BaseID:  w.ID,
		German:  w.German,
		Spanish: w.Spanish,
		Word:    w,
	}}
	if w.Type != TypeVerb {
		return out
	}
	for _, p := range w.Prefixes {
		prefix := strings.TrimSpace(p.Prefix)
		if prefix == "" {
			continue
		}
		out = append(out, PlayableWord{
			ID:        fmt.Sprintf("%d_%s", w.ID, prefix),
			BaseID:    w.ID,
			German:    strings.ToLower(prefix) + w.German,
			Spanish:   p.Meaning,
			Prefix:    prefix,
			IsDerived: true,
			Word:      w,
		})
	}
	return out
}

// ExpandAll flattens a list of words into playable words
func ExpandAll(words []Word) []PlayableWord {
	out := make([]PlayableWord, 0, len(words))
	for _, w := range words {
		out = append(out, Expand(w)...)
	}
	return out
}

// BaseWordID resolves a playable or progress id back to the base word id.
// "42" and "42_an" both give 42; anything without a numeric base is not found.
func BaseWordID(id string) (int64, bool) {
	base := id
	if i := strings.Index(id, "_"); i >= 0 {
		base = id[:i]
	}
	n, err := strconv.ParseInt(base, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// DisplayGerman renders the German side of a card, with article for nouns
func (p PlayableWord) DisplayGerman() string {
	if p.Word.Type == TypeNoun {
		if article, ok := Articles[p.Word.Gender]; ok && p.German != "" {
			r := []rune(p.German)
			return article + " " + strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return p.German
}
