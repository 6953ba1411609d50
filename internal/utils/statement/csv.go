package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
)

// columnAliases maps accepted header names to RawRow fields.
var columnAliases = map[string]string{
	"date":             "date",
	"transaction date": "date",
	"posting date":     "date",
	"description":      "description",
	"details":          "description",
	"memo":             "description",
	"reference":        "reference",
	"ref":              "reference",
	"check or slip #":  "reference",
	"debit":            "debit",
	"withdrawal":       "debit",
	"credit":           "credit",
	"deposit":          "credit",
	"balance":          "balance",
	"running balance":  "balance",
}

// ReadCSV reads a statement CSV with a header row. Column names are matched
// case-insensitively; unknown columns are ignored. A date column is required.
//
// Lines the CSV reader cannot parse are returned as row errors and reading continues, so
// the remaining rows can still be imported. Every row carries its file line number.
// err is only set when the file as a whole is unusable.
func ReadCSV(r io.Reader) ([]RawRow, []apperrors.RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("statement is empty")
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := columnAliases[name]; ok {
			if _, dup := index[field]; !dup {
				index[field] = i
			}
		}
	}
	if _, ok := index["date"]; !ok {
		return nil, nil, fmt.Errorf("statement header has no date column")
	}

	var rows []RawRow
	var lineErrors []apperrors.RowError
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			lineErrors = append(lineErrors, apperrors.RowError{Row: parseErr.StartLine, Message: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read statement: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		get := func(field string) string {
			i, ok := index[field]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		rows = append(rows, RawRow{
			Line:        line,
			Date:        get("date"),
			Description: get("description"),
			Reference:   get("reference"),
			Debit:       get("debit"),
			Credit:      get("credit"),
			Balance:     get("balance"),
		})
	}
	return rows, lineErrors, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
