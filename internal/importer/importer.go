// Package importer loads dictionary words from spreadsheet exports.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"vocab-backend/internal/models"
)

// Config selects where each field lives. Columns are zero-based.
type Config struct {
	SheetName        string
	SkipHeader       bool
	WordColumn       int
	DefinitionColumn int
	PosColumn        int
}

func DefaultConfig() Config {
	return Config{
		SheetName:        "Sheet1",
		SkipHeader:       true,
		WordColumn:       0,
		DefinitionColumn: 1,
		PosColumn:        2,
	}
}

type Result struct {
	Rows     int      `json:"rows"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// Dictionary is where parsed words are written.
type Dictionary interface {
	Upsert(ctx context.Context, words []models.Word) (int, error)
}

// ImportFile parses path (.xlsx or .csv) and upserts its words.
func ImportFile(ctx context.Context, dict Dictionary, path string, cfg Config) (*Result, error) {
	rows, err := readRows(path, cfg)
	if err != nil {
		return nil, err
	}

	words, result := ParseRows(rows, cfg)
	if len(words) == 0 {
		return result, nil
	}

	n, err := dict.Upsert(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("failed to store words: %w", err)
	}
	result.Imported = n
	return result, nil
}

func readRows(path string, cfg Config) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm":
		return readExcel(path, cfg.SheetName)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseRows turns raw rows into dictionary words. Blank words are skipped
// and later duplicates override earlier ones.
func ParseRows(rows [][]string, cfg Config) ([]models.Word, *Result) {
	result := &Result{Errors: []string{}}
	index := map[string]int{}
	var words []models.Word

	for i, row := range rows {
		if i == 0 && cfg.SkipHeader {
			continue
		}
		result.Rows++

		w := strings.TrimSpace(cell(row, cfg.WordColumn))
		if w == "" {
			result.Skipped++
			continue
		}
		if strings.ContainsAny(w, "\t\n") {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: word contains control characters", i+1))
			continue
		}

		entry := models.Word{
			Word:         w,
			Definition:   strings.TrimSpace(cell(row, cfg.DefinitionColumn)),
			PartOfSpeech: strings.TrimSpace(cell(row, cfg.PosColumn)),
		}
		if at, ok := index[w]; ok {
			words[at] = entry
			result.Skipped++
			continue
		}
		index[w] = len(words)
		words = append(words, entry)
	}
	return words, result
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
