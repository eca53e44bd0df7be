package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"subtrack/internal/core"
)

// Row maps a lower-cased header name to the raw cell value.
type Row map[string]string

// Decoder turns an uploaded file into ordered rows.
type Decoder interface {
	Decode(r io.Reader) ([]Row, error)
}

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{"name", "cost", "subscription_date", "renewal_type"}

// CSVDecoder reads comma separated files with a header row. A UTF-8 or
// UTF-16 byte-order mark is honoured and stripped.
type CSVDecoder struct {
	Comma rune
}

func NewCSVDecoder() *CSVDecoder {
	return &CSVDecoder{Comma: ','}
}

func (d *CSVDecoder) Decode(r io.Reader) ([]Row, error) {
	bom := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(r, bom))
	if d.Comma != 0 {
		reader.Comma = d.Comma
	}
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", core.ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", core.ErrMalformedInput, err)
	}

	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(h))
		present[columns[i]] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns: %s", core.ErrMalformedInput, strings.Join(missing, ", "))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", core.ErrMalformedInput, len(rows)+1, err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", core.ErrMalformedInput)
	}
	return rows, nil
}
