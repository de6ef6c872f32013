package excel

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// exportSheet is the default sheet of a new workbook
const exportSheet = "Sheet1"

var exportHeader = []interface{}{
	"German", "Spanish", "Type", "Gender", "Difficulty", "Category",
	"Case", "Regular", "Past tense", "Participle", "Prefixes",
}

// Export writes all words of a learner as an .xlsx workbook in the default import layout
func (im *Importer) Export(ctx context.Context, userID int64, w io.Writer) (int, error) {
	words, err := im.words.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get words: %w", err)
	}
	categories, err := im.categories.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get categories: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, word := range words {
		regular := ""
		if word.IsRegular {
			regular = "yes"
		}
		row := []interface{}{
			word.German, word.Spanish, string(word.Type), word.Gender, word.Difficulty,
			names[word.CategoryID], word.Case, regular, word.PastTense, word.Participle,
			FormatPrefixes(word.Prefixes),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return len(words), nil
}
