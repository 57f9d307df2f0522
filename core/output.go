package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// Printer handles all display output for the CLI.
type Printer struct {
	JSON    bool
	Verbose bool
	Writer  io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode, verbose bool) *Printer {
	return &Printer{JSON: jsonMode, Verbose: verbose, Writer: os.Stdout}
}

// PrintMetadata renders a Metadata struct to the configured output.
func (p *Printer) PrintMetadata(m *Metadata) {
	if p.JSON {
		p.printJSON(m)
		return
	}
	p.printText(m)
}

func (p *Printer) printText(m *Metadata) {
	fmt.Fprintf(p.Writer, "File  : %s\n", m.FilePath)
	fmt.Fprintf(p.Writer, "Format: %s (%s)\n", m.Format, m.MIMEType)
	if len(m.Fields) == 0 {
		fmt.Fprintln(p.Writer, "(no metadata found)")
	}
	fmt.Fprintln(p.Writer)

	// Group by category
	groups := make(map[string][]MetaField)
	order := []string{}
	for _, f := range m.Fields {
		if _, ok := groups[f.Category]; !ok {
			order = append(order, f.Category)
		}
		groups[f.Category] = append(groups[f.Category], f)
	}

	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()
	for _, cat := range order {
		fmt.Fprintf(p.Writer, "── %s ──\n", cat)
		tbl := table.New("Field", "Value").
			WithWriter(p.Writer).
			WithHeaderFormatter(headerFmt).
			WithFirstColumnFormatter(columnFmt).
			WithPadding(2)
		for _, f := range groups[cat] {
			tbl.AddRow(f.Key, truncate(f.Value, 80))
		}
		tbl.Print()
		fmt.Fprintln(p.Writer)
	}

	if p.Verbose {
		for _, w := range m.Warnings {
			fmt.Fprintln(p.Writer, color.New(color.FgRed).Sprint("! ")+w)
		}
	}
}

func (p *Printer) printJSON(m *Metadata) {
	type jsonField struct {
		Key      string `json:"key"`
		Value    string `json:"value"`
		Category string `json:"category"`
	}
	type jsonOutput struct {
		FilePath string      `json:"file"`
		Format   string      `json:"format"`
		MIMEType string      `json:"mime_type"`
		Fields   []jsonField `json:"fields"`
		Warnings []string    `json:"warnings,omitempty"`
	}

	out := jsonOutput{
		FilePath: m.FilePath,
		Format:   m.Format,
		MIMEType: m.MIMEType,
		Fields:   []jsonField{},
		Warnings: m.Warnings,
	}
	for _, f := range m.Fields {
		out.Fields = append(out.Fields, jsonField{
			Key:      f.Key,
			Value:    f.Value,
			Category: f.Category,
		})
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(p.Writer, string(b))
}

// PrintCleaning reports the outcome of a clean operation.
func (p *Printer) PrintCleaning(src, dst string, r *CleaningResult) {
	if p.JSON {
		type jsonSegment struct {
			Name   string `json:"name"`
			Kind   string `json:"kind"`
			Offset int    `json:"offset"`
			Length int    `json:"length"`
		}
		out := struct {
			Source   string        `json:"source"`
			Output   string        `json:"output"`
			Original int           `json:"original_size"`
			Cleaned  int           `json:"cleaned_size"`
			Removed  []jsonSegment `json:"removed"`
		}{Source: src, Output: dst, Original: r.OriginalSize, Cleaned: r.CleanedSize, Removed: []jsonSegment{}}
		for _, s := range r.Removed {
			out.Removed = append(out.Removed, jsonSegment{Name: s.Name, Kind: s.Kind.String(), Offset: s.Offset, Length: s.Length})
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(p.Writer, string(b))
		return
	}

	if len(r.Removed) == 0 {
		p.PrintSuccess(fmt.Sprintf("%s: no metadata found, written unchanged to %s", src, dst))
		return
	}
	p.PrintSuccess(fmt.Sprintf("%s → %s: removed %d segment(s), %d bytes saved", src, dst, len(r.Removed), r.BytesSaved()))
	if p.Verbose {
		for _, s := range r.Removed {
			fmt.Fprintf(p.Writer, "  - %-12s %-8s offset %d, %d bytes\n", s.Name, s.Kind, s.Offset, s.Length)
		}
	}
}

// PrintSuccess prints a success message.
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.Writer, color.GreenString("✓ ")+msg)
}

// PrintInfo prints an info line (suppressed in JSON mode).
func (p *Printer) PrintInfo(msg string) {
	if !p.JSON {
		fmt.Fprintln(p.Writer, msg)
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, color.RedString("✗ Error: ")+msg)
}

// ResolveOutPath returns dst if non-empty. Otherwise the output sits next
// to src with suffix inserted before the extension; an empty suffix means
// in-place.
func ResolveOutPath(src, dst, suffix string) string {
	if dst != "" {
		return dst
	}
	if suffix == "" {
		return src
	}
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + suffix + ext
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
