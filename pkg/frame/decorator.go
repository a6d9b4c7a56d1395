package frame

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"flapboard/pkg/llm"
	"flapboard/pkg/model"
)

// Default board dimensions.
const (
	DefaultRows = 6
	DefaultCols = 22
)

// Decorator turns plain text into a positioned, display-ready
// character grid. Warnings are informational; the grid is always
// usable.
type Decorator struct {
	rows int
	cols int
}

// NewDecorator creates a Decorator for the given board dimensions.
func NewDecorator(rows, cols int) *Decorator {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	return &Decorator{rows: rows, cols: cols}
}

// Decorate lays text out on the board grid. Lines are word-wrapped to
// the board width, centered per opts, and mapped to character codes.
// Unmappable runes become blanks and overflow lines are dropped; both
// produce warnings.
func (d *Decorator) Decorate(text string, ts time.Time, meta *model.Metadata, opts *model.FormatOptions) (*model.Layout, []string) {
	var warnings []string

	lines := strings.Split(llm.WordWrap(strings.ToUpper(text), d.cols), "\n")

	contentRows := d.rows
	showTime := opts != nil && opts.ShowTime
	if showTime {
		contentRows--
	}

	if len(lines) > contentRows {
		warnings = append(warnings, fmt.Sprintf("text truncated from %d to %d lines", len(lines), contentRows))
		lines = lines[:contentRows]
	}

	center := opts == nil || opts.Align != "left"

	// Vertical centering within the content rows.
	topPad := 0
	if center {
		topPad = (contentRows - len(lines)) / 2
	}

	grid := make([][]int, d.rows)
	for i := range grid {
		grid[i] = make([]int, d.cols)
	}

	for i, line := range lines {
		row := topPad + i
		codes, dropped := d.encodeLine(line, center)
		if dropped > 0 {
			warnings = append(warnings, fmt.Sprintf("line %d: %d unmappable characters replaced with blanks", i+1, dropped))
		}
		copy(grid[row], codes)
	}

	if showTime {
		d.writeTimeRow(grid[d.rows-1], ts)
	}

	return &model.Layout{Rows: d.rows, CharacterCodes: grid}, warnings
}

// encodeLine maps one line of text to codes, clipped to the board
// width. Returns the codes and the number of unmappable runes.
func (d *Decorator) encodeLine(line string, center bool) ([]int, int) {
	runes := []rune(line)
	if len(runes) > d.cols {
		runes = runes[:d.cols]
	}

	pad := 0
	if center {
		pad = (d.cols - len(runes)) / 2
	}

	codes := make([]int, d.cols)
	dropped := 0
	for i, r := range runes {
		code, ok := CodeFor(r)
		if !ok {
			if !unicode.IsSpace(r) {
				dropped++
			}
			code = 0
		}
		codes[pad+i] = code
	}
	return codes, dropped
}

// writeTimeRow renders HH:MM right-aligned on the given row.
func (d *Decorator) writeTimeRow(row []int, ts time.Time) {
	stamp := ts.Format("15:04")
	start := d.cols - len(stamp)
	if start < 0 {
		return
	}
	for i, r := range stamp {
		if code, ok := CodeFor(r); ok {
			row[start+i] = code
		}
	}
}
