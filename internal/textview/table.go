package textview

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// table renders aligned text tables with a bold header row.
type table struct {
	headers []string
	rows    [][]string
	bold    *color.Color
}

func (t *table) addRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

func (t *table) render(w io.Writer, indent string) error {
	if len(t.headers) == 0 {
		return nil
	}
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	parts := make([]string, len(t.headers))
	for i, h := range t.headers {
		parts[i] = t.bold.Sprintf("%-*s", widths[i], h)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", indent, strings.Join(parts, "  ")); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", indent, strings.Join(parts, "  ")); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		line := strings.TrimRight(strings.Join(parts, "  "), " ")
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, line); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
	}
	return nil
}
