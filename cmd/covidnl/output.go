package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spektr-org/covidnl/engine"
)

// ============================================================================
// OUTPUT TYPES
// ============================================================================

type chartOutput struct {
	Query  engine.ChartQuery `json:"query"`
	Result *engine.Result    `json:"result"`
}

// ============================================================================
// CSV OUTPUT — chart series as a Sheets-ready table, unformatted numbers
// ============================================================================

func writeCSV(w io.Writer, result *engine.Result) error {
	cw := csv.NewWriter(w)

	switch {
	case result == nil:
		_ = cw.Write([]string{"Result", "No data"})
	case result.ChartConfig != nil && len(result.ChartConfig.Series) > 0:
		writeChartCSV(cw, result.ChartConfig)
	default:
		// Fallback: summary as single-row CSV
		_ = cw.Write([]string{"Summary"})
		_ = cw.Write([]string{result.Summary})
	}

	cw.Flush()
	return cw.Error()
}

// writeChartCSV writes one row per category: the label, then one column per
// series.
func writeChartCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	xLabel := chart.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}

	headers := []string{xLabel}
	for _, s := range chart.Series {
		headers = append(headers, s.Name)
	}
	_ = cw.Write(headers)

	for i, label := range chart.Categories {
		row := []string{label}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, fmtNum(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		_ = cw.Write(row)
	}
}

// ============================================================================
// TABLE OUTPUT — terminal table with a total row
// ============================================================================

func writeTable(w io.Writer, result *engine.Result) error {
	data := result.TableData
	if data == nil {
		_, err := fmt.Fprintln(w, result.Summary)
		return err
	}

	headers := make([]string, len(data.Columns))
	for i, c := range data.Columns {
		headers[i] = c.Label
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(data.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if col < len(data.Columns) && data.Columns[col].Align == "right" {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
	if data.Summary != nil {
		total := make([]string, len(data.Columns))
		total[0] = data.Summary.Label
		for i, c := range data.Columns[1:] {
			total[i+1] = data.Summary.Values[c.Key]
		}
		t.Row(total...)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, result.Summary)
	return err
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var (
		out []byte
		err error
	)
	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
