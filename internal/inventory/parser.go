package inventory

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	enc "github.com/MrJamesThe3rd/innkeeper/internal/encoding"
)

var ErrNoRooms = errors.New("no room ids found")

// headerNames are accepted, case-insensitively, as the name of the room id column.
var headerNames = []string{"room_id", "room", "id"}

// Parse reads a room inventory export and returns the distinct room ids in file order.
// Files without a recognisable header are read from their first column.
func Parse(r io.Reader) ([]int64, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectComma(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	col, start := detectColumn(rows)

	seen := make(map[int64]struct{})

	var ids []int64

	for _, row := range rows[start:] {
		if len(row) <= col {
			continue
		}

		id, err := strconv.ParseInt(strings.TrimSpace(row[col]), 10, 64)
		if err != nil || id <= 0 {
			continue
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, ErrNoRooms
	}

	return ids, nil
}

// detectComma picks ';' when the first line has more semicolons than commas.
func detectComma(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}

	return ','
}

// detectColumn returns the id column and the index of the first data row.
func detectColumn(rows [][]string) (col, start int) {
	for rowIdx, row := range rows {
		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			for _, h := range headerNames {
				if name == h {
					return i, rowIdx + 1
				}
			}
		}

		// Only the leading rows may hold the header; stop at the first numeric row.
		if len(row) > 0 {
			if _, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64); err == nil {
				break
			}
		}
	}

	return 0, 0
}
