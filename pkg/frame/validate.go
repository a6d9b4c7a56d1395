package frame

import (
	"fmt"
	"strings"

	"flapboard/pkg/llm"
	"flapboard/pkg/model"
)

// ValidationError reports content the board cannot show. The rejected
// content travels with the error so callers can log it for diagnostics
// before discarding.
type ValidationError struct {
	Problems []string
	Content  *model.GeneratedContent
}

func (e *ValidationError) Error() string {
	return "content failed validation: " + strings.Join(e.Problems, "; ")
}

// ValidateContent checks generated content against the board's
// constraints: line count, per-line length, and character set for text;
// grid dimensions and code range for layouts. Returns a
// *ValidationError or nil.
func (d *Decorator) ValidateContent(c *model.GeneratedContent) error {
	var problems []string

	switch c.Mode {
	case model.ModeLayout:
		problems = d.validateLayout(c.Layout)
	default:
		problems = d.validateText(c.Text)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems, Content: c}
	}
	return nil
}

func (d *Decorator) validateText(text string) []string {
	var problems []string

	if strings.TrimSpace(text) == "" {
		return []string{"text is empty"}
	}

	upper := strings.ToUpper(text)

	// A single word wider than the board cannot be wrapped.
	for _, word := range strings.Fields(upper) {
		if len([]rune(word)) > d.cols {
			problems = append(problems, fmt.Sprintf("word %q exceeds board width %d", word, d.cols))
		}
	}

	wrapped := strings.Split(llm.WordWrap(upper, d.cols), "\n")
	if len(wrapped) > d.rows {
		problems = append(problems, fmt.Sprintf("text needs %d lines, board has %d", len(wrapped), d.rows))
	}

	seen := make(map[rune]bool)
	for _, r := range upper {
		if r == '\n' || seen[r] {
			continue
		}
		seen[r] = true
		if _, ok := CodeFor(r); !ok {
			problems = append(problems, fmt.Sprintf("character %q not displayable", r))
		}
	}

	return problems
}

func (d *Decorator) validateLayout(l *model.Layout) []string {
	if l == nil {
		return []string{"layout mode without layout data"}
	}

	var problems []string
	if len(l.CharacterCodes) != d.rows {
		problems = append(problems, fmt.Sprintf("layout has %d rows, board has %d", len(l.CharacterCodes), d.rows))
	}
	for i, row := range l.CharacterCodes {
		if len(row) != d.cols {
			problems = append(problems, fmt.Sprintf("row %d has %d columns, board has %d", i, len(row), d.cols))
			continue
		}
		for _, code := range row {
			if code < 0 || code > MaxCode {
				problems = append(problems, fmt.Sprintf("row %d contains invalid code %d", i, code))
				break
			}
		}
	}
	return problems
}
