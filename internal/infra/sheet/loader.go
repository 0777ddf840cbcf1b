package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"quiz-arena/internal/bank"
	"quiz-arena/internal/domain"
)

var extensions = []string{".xlsx", ".csv"}

// DirLoader resolves bank IDs to spreadsheets in a directory: bank "geo"
// is read from geo.xlsx, falling back to geo.csv.
type DirLoader struct {
	dir string
}

func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

func (l *DirLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	if bankID == "" || bankID != filepath.Base(bankID) || strings.HasPrefix(bankID, ".") {
		return domain.QuestionBank{}, fmt.Errorf("%w: %q", domain.ErrBankNotFound, bankID)
	}
	for _, ext := range extensions {
		path := filepath.Join(l.dir, bankID+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(bankID, path)
	}
	return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrBankNotFound, bankID)
}

// List returns the bank IDs available in the directory.
func (l *DirLoader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".xlsx" && ext != ".csv" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadFile parses one xlsx or csv file into a bank.
func LoadFile(bankID, path string) (domain.QuestionBank, error) {
	var (
		table [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		table, err = readWorkbook(path)
	case ".csv":
		table, err = readCSV(path)
	default:
		return domain.QuestionBank{}, fmt.Errorf("unsupported sheet format %q", filepath.Ext(path))
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("read %s: %w", path, err)
	}
	questions, err := bank.ParseTable(table)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("bank %s: %w", bankID, err)
	}
	return domain.QuestionBank{ID: bankID, Questions: questions}, nil
}

// readWorkbook reads the first worksheet.
func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrEmptyBank
	}
	return f.GetRows(sheets[0])
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var table [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return table, nil
		}
		if err != nil {
			return nil, err
		}
		table = append(table, row)
	}
}
