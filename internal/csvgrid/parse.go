// Package csvgrid fetches CSV files from signed URLs and parses them into grids.
package csvgrid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	apperrors "autods/internal/errors"
	"autods/internal/model"
)

// RaggedPolicy decides what happens to rows whose width differs from the widest row.
type RaggedPolicy string

const (
	// RaggedKeep leaves rows as tokenized.
	RaggedKeep RaggedPolicy = "keep"
	// RaggedPad appends empty cells up to the widest row.
	RaggedPad RaggedPolicy = "pad"
	// RaggedReject fails when any row differs in width from the header.
	RaggedReject RaggedPolicy = "reject"
)

// ParseRaggedPolicy maps a config value to a policy, defaulting to RaggedKeep.
func ParseRaggedPolicy(s string) RaggedPolicy {
	switch RaggedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case RaggedPad:
		return RaggedPad
	case RaggedReject:
		return RaggedReject
	default:
		return RaggedKeep
	}
}

// DefaultDelimiter separates cells.
const DefaultDelimiter = ';'

// ErrNoData is wrapped by the ParseError returned for text without any rows.
var ErrNoData = errors.New("no csv data found")

// Parse tokenizes text into a grid. Empty lines are skipped.
func Parse(text string, delimiter rune, policy RaggedPolicy) (model.Grid, error) {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	text = strings.TrimPrefix(text, "\ufeff")

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	// A quote inside an unquoted cell is literal text, as in `55" screen`.
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return model.Grid{}, &apperrors.ParseError{Err: err}
	}
	if len(rows) == 0 {
		return model.Grid{}, &apperrors.ParseError{Err: ErrNoData}
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width <= 1 && !strings.ContainsRune(text, delimiter) {
		return model.Grid{}, &apperrors.ParseError{Msg: fmt.Sprintf("delimiter %q not found", delimiter)}
	}

	switch policy {
	case RaggedPad:
		for i, row := range rows {
			for len(row) < width {
				row = append(row, "")
			}
			rows[i] = row
		}
	case RaggedReject:
		want := len(rows[0])
		for i, row := range rows {
			if len(row) != want {
				return model.Grid{}, &apperrors.ParseError{
					Msg: fmt.Sprintf("row %d has %d fields, header has %d", i+1, len(row), want),
				}
			}
		}
	}

	return model.Grid{Rows: rows}, nil
}
