package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/pkg/models"
)

// WordStore is the vocabulary storage used by imports and exports
type WordStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Word, error)
	FindByKey(ctx context.Context, userID int64, german string, wordType models.WordType) (*models.Word, error)
	Create(ctx context.Context, word *models.Word) error
	Update(ctx context.Context, word *models.Word) error
}

type CategoryStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Category, error)
	GetOrCreate(ctx context.Context, userID int64, name string) (*models.Category, error)
}

// ImportConfig maps spreadsheet columns to word fields. Empty columns are not read.
type ImportConfig struct {
	GermanColumn     string
	SpanishColumn    string
	TypeColumn       string
	GenderColumn     string
	DifficultyColumn string
	CategoryColumn   string
	CaseColumn       string
	RegularColumn    string
	PastTenseColumn  string
	ParticipleColumn string
	PrefixesColumn   string // "an:llegar|auf:abrir"
	SheetName        string // first sheet when empty
	StartRow         int    // 1-based
}

// DefaultImportConfig returns the layout written by Export
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		GermanColumn:     "A",
		SpanishColumn:    "B",
		TypeColumn:       "C",
		GenderColumn:     "D",
		DifficultyColumn: "E",
		CategoryColumn:   "F",
		CaseColumn:       "G",
		RegularColumn:    "H",
		PastTenseColumn:  "I",
		ParticipleColumn: "J",
		PrefixesColumn:   "K",
		StartRow:         2,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed    int
	CategoriesCreated int
	Created           int
	Updated           int
	Skipped           int
	Errors            []string
}

// Importer loads vocabulary spreadsheets into a learner's word list
type Importer struct {
	words      WordStore
	categories CategoryStore
	config     ImportConfig
	log        *logger.Logger
}

// NewImporter creates an importer using the given column layout
func NewImporter(words WordStore, categories CategoryStore, config ImportConfig, log *logger.Logger) *Importer {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	return &Importer{words: words, categories: categories, config: config, log: log}
}

// Import reads an .xlsx or .csv document, chosen by the file name extension
func (im *Importer) Import(ctx context.Context, userID int64, fileName string, r io.Reader) (*ImportResult, error) {
	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(fileName)) == ".csv" {
		rows, err = readCSV(r)
	} else {
		rows, err = im.readSheet(r)
	}
	if err != nil {
		return nil, err
	}

	categories, err := im.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing categories: %w", err)
	}
	known := make(map[string]int64, len(categories))
	for _, c := range categories {
		known[strings.ToLower(c.Name)] = c.ID
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < im.config.StartRow-1 || isBlank(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalProcessed++
		if err := im.processRow(ctx, userID, row, known, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	im.log.Info("words imported", "user_id", userID, "file", fileName,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func (im *Importer) readSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := im.config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

func (im *Importer) processRow(ctx context.Context, userID int64, row []string, known map[string]int64, result *ImportResult) error {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	w := models.Word{
		UserID:     userID,
		German:     cell(im.config.GermanColumn),
		Spanish:    cell(im.config.SpanishColumn),
		Type:       models.ParseWordType(cell(im.config.TypeColumn)),
		Difficulty: parseIntOrDefault(cell(im.config.DifficultyColumn), 1, 5, 3),
		PastTense:  cell(im.config.PastTenseColumn),
		Participle: cell(im.config.ParticipleColumn),
		Case:       strings.ToLower(cell(im.config.CaseColumn)),
		IsRegular:  parseBool(cell(im.config.RegularColumn)),
	}
	if w.German == "" {
		return errors.New("German word cannot be empty")
	}
	if w.Spanish == "" {
		return errors.New("translation cannot be empty")
	}
	if w.Type == models.TypeNoun {
		w.Gender = ParseGender(cell(im.config.GenderColumn))
	}
	if w.Type == models.TypeVerb {
		prefixes, err := ParsePrefixes(cell(im.config.PrefixesColumn))
		if err != nil {
			return err
		}
		w.Prefixes = prefixes
	}

	if name := cell(im.config.CategoryColumn); name != "" {
		id, created, err := im.category(ctx, userID, name, known)
		if err != nil {
			return err
		}
		if created {
			result.CategoriesCreated++
		}
		w.CategoryID = id
	}

	existing, err := im.words.FindByKey(ctx, userID, w.German, w.Type)
	switch {
	case err == nil:
		w.ID = existing.ID
		w.ImportedFrom = existing.ImportedFrom
		if err := im.words.Update(ctx, &w); err != nil {
			return fmt.Errorf("failed to update word: %w", err)
		}
		result.Updated++
	case errors.Is(err, database.ErrNotFound):
		if err := im.words.Create(ctx, &w); err != nil {
			return fmt.Errorf("failed to create word: %w", err)
		}
		result.Created++
	default:
		return fmt.Errorf("failed to search for existing word: %w", err)
	}
	return nil
}

func (im *Importer) category(ctx context.Context, userID int64, name string, known map[string]int64) (int64, bool, error) {
	key := strings.ToLower(name)
	if id, ok := known[key]; ok {
		return id, false, nil
	}
	c, err := im.categories.GetOrCreate(ctx, userID, name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to process category: %w", err)
	}
	known[key] = c.ID
	return c.ID, true, nil
}

// ParsePrefixes reads "an:llegar|auf:abrir". Entries without a meaning are rejected.
func ParsePrefixes(s string) (models.SeparablePrefixes, error) {
	var out models.SeparablePrefixes
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prefix, meaning, ok := strings.Cut(part, ":")
		prefix, meaning = strings.TrimSpace(prefix), strings.TrimSpace(meaning)
		if !ok || prefix == "" || meaning == "" {
			return nil, fmt.Errorf("invalid separable prefix %q, expected prefix:meaning", part)
		}
		out = append(out, models.SeparablePrefix{Prefix: strings.ToLower(prefix), Meaning: meaning})
	}
	return out, nil
}

// FormatPrefixes is the inverse of ParsePrefixes
func FormatPrefixes(p models.SeparablePrefixes) string {
	parts := make([]string, 0, len(p))
	for _, sp := range p {
		parts = append(parts, sp.Prefix+":"+sp.Meaning)
	}
	return strings.Join(parts, "|")
}

// ParseGender accepts m/f/n as well as the articles der/die/das
func ParseGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "der":
		return "m"
	case "f", "die":
		return "f"
	case "n", "das":
		return "n"
	}
	return ""
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "si", "sí", "regular":
		return true
	}
	return false
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// columnToIndex converts an Excel column letter to a 0-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

func parseIntOrDefault(s string, min, max, defaultVal int) int {
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
