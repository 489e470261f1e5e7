package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gridpulse-systems/gridpulse-relay/pkg/color"
)

// Status glyphs prefixing probe and seed output lines.
const (
	glyphPass = "✓"
	glyphFail = "✗"
	glyphWarn = "⚠"
)

var (
	passStyle   = color.New(color.FgGreen, color.Bold)
	failStyle   = color.New(color.FgRed, color.Bold)
	infoStyle   = color.New(color.FgCyan)
	warnStyle   = color.New(color.FgYellow)
	headerStyle = color.New(color.FgWhite, color.Bold)
)

func emit(w io.Writer, style *color.Color, glyph, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if glyph != "" {
		msg = glyph + " " + msg
	}
	style.Fprintf(w, "%s\n", msg)
}

// Success reports a passed step on stdout.
func Success(format string, a ...interface{}) {
	emit(os.Stdout, passStyle, glyphPass, format, a...)
}

// Error reports a failed step on stderr.
func Error(format string, a ...interface{}) {
	emit(os.Stderr, failStyle, glyphFail, format, a...)
}

// Info prints a neutral progress line on stdout.
func Info(format string, a ...interface{}) {
	emit(os.Stdout, infoStyle, "", format, a...)
}

// Warn flags a suspicious but non-fatal result on stdout.
func Warn(format string, a ...interface{}) {
	emit(os.Stdout, warnStyle, glyphWarn, format, a...)
}

// JSON writes v to stdout as indented JSON, for probe results that
// feed other tooling.
func JSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders rows in columns sized to their widest cell.
type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{headers: headers}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(fmt.Sprintf("%-*s", widths[i], cell))
	}
	return strings.TrimRight(b.String(), " ")
}

func (t *Table) Render() {
	widths := t.widths()

	headerStyle.Printf("%s\n", formatRow(t.headers, widths))

	rule := make([]string, len(t.headers))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	fmt.Println(formatRow(rule, widths))

	for _, row := range t.rows {
		fmt.Println(formatRow(row, widths))
	}
}
