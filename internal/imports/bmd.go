package imports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// BMDRow is one line of a BMD NTCS work-item export. The export is a
// semicolon-delimited CSV encoded as Windows-1252, with German column
// headers on the first line.
type BMDRow struct {
	ClientNumber string
	Reference    string
	Title        string
	Description  string
}

// ParseBMD decodes a BMD export. Column positions are resolved from the
// header, so reordered exports still parse. Lines with too few fields are
// returned with empty values and left to the caller to count as skipped.
func ParseBMD(r io.Reader) ([]BMDRow, error) {
	reader := csv.NewReader(charmap.Windows1252.NewDecoder().Reader(r))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bmd: read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	client, ok := cols["klientennummer"]
	if !ok {
		return nil, fmt.Errorf("bmd: header misses klientennummer column")
	}
	ref, ok := cols["belegnummer"]
	if !ok {
		return nil, fmt.Errorf("bmd: header misses belegnummer column")
	}
	title, hasTitle := cols["betreff"]
	desc, hasDesc := cols["beschreibung"]

	var rows []BMDRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bmd: read row: %w", err)
		}
		row := BMDRow{
			ClientNumber: field(record, client),
			Reference:    field(record, ref),
		}
		if hasTitle {
			row.Title = field(record, title)
		}
		if hasDesc {
			row.Description = field(record, desc)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
