package imports

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FinmaticsRecord is one line of a Finmatics export. The export is UTF-8
// JSON lines, one processed document per line.
type FinmaticsRecord struct {
	DocumentID string `json:"document_id"`
	ClientID   string `json:"client_id"`
	Type       string `json:"document_type"`
	Status     string `json:"status"`
	Filename   string `json:"filename"`
}

// ParseFinmatics decodes a Finmatics JSON-lines export. Blank lines are
// ignored; a malformed line aborts the parse with its line number.
func ParseFinmatics(r io.Reader) ([]FinmaticsRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []FinmaticsRecord
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec FinmaticsRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("finmatics: line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("finmatics: read: %w", err)
	}
	return records, nil
}
