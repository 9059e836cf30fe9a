package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// outputTable renders rounded tables on a terminal and tab-separated values
// when stdout is piped.
type outputTable struct {
	tw table.Writer
}

func newTable(headers ...string) *outputTable {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return &outputTable{tw: tw}
}

// alignRight right-aligns the given 1-based columns, typically counts.
func (t *outputTable) alignRight(columns ...int) *outputTable {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight})
	}
	t.tw.SetColumnConfigs(configs)
	return t
}

func (t *outputTable) add(cells ...any) {
	t.tw.AppendRow(cells)
}

// total appends a footer row, used for per-run totals.
func (t *outputTable) total(cells ...any) {
	t.tw.AppendFooter(cells)
}

func (t *outputTable) write(out io.Writer) error {
	rendered := t.tw.RenderTSV()
	if isTerminal(out) {
		rendered = t.tw.Render()
	}
	_, err := io.WriteString(out, rendered+"\n")
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writeJSON encodes v as indented JSON. Addresses such as "W 37th St & Broadway"
// are written verbatim.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
