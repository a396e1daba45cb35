package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// CSV renders tabular data as readable text: a sheet marker, the header, then
// one "header: value" line group per row, so column context stays attached to
// every value after chunking.
type CSV struct{}

func NewCSV() *CSV { return &CSV{} }

func (c *CSV) Formats() []string { return []string{"text/csv"} }

func (c *CSV) Extract(raw []byte, name string) (string, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%s: parse csv: %w", name, err)
	}
	if len(records) == 0 {
		return "", nil
	}

	header := records[0]
	var b strings.Builder
	b.WriteString("File: " + name)
	b.WriteString(PageMarker("sheet", 1))
	b.WriteString("Columns: " + strings.Join(header, ", ") + "\n\n")

	for _, row := range records[1:] {
		for i, val := range row {
			if strings.TrimSpace(val) == "" {
				continue
			}
			col := ""
			if i < len(header) {
				col = header[i]
			}
			if col != "" {
				b.WriteString(col + ": ")
			}
			b.WriteString(val + "\n")
		}
		b.WriteString("\n")
	}

	return normalize(b.String()), nil
}
