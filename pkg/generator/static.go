package generator

import (
	"context"

	"flapboard/pkg/model"
)

// defaultMessages is the last-resort rotation shown when every AI path
// is unavailable.
var defaultMessages = []string{
	"HELLO FROM FLAPBOARD",
	"BACK SHORTLY WITH FRESH WORDS",
	"THE BOARD NEVER SLEEPS",
	"STAY CURIOUS",
	"GOOD THINGS TAKE TIME",
}

// StaticGenerator serves fixed messages and never fails. It backs the
// fallback tier so the display keeps showing something during outages.
type StaticGenerator struct {
	messages []string
	next     int
}

// NewStaticGenerator creates a generator over the given messages, or
// the built-in set when none are supplied.
func NewStaticGenerator(messages []string) *StaticGenerator {
	if len(messages) == 0 {
		messages = defaultMessages
	}
	return &StaticGenerator{messages: messages}
}

func (g *StaticGenerator) Generate(_ context.Context, gc model.GenerationContext) (*model.GeneratedContent, error) {
	msg := g.messages[g.next%len(g.messages)]
	g.next++

	return &model.GeneratedContent{
		Text: msg,
		Mode: model.ModeText,
		Meta: &model.Metadata{
			Provider: "static",
		},
	}, nil
}

func (g *StaticGenerator) Validate() []string {
	if len(g.messages) == 0 {
		return []string{"no static messages configured"}
	}
	return nil
}
