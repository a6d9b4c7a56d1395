package generator

import (
	"context"
	"fmt"
	"strings"

	"flapboard/pkg/model"
)

// EventGenerator renders notification-tier content from an inbound
// event using a fixed template. It needs no AI provider, so
// notifications stay available during provider outages.
type EventGenerator struct {
	template string // may reference {type} and {entity}
}

// NewEventGenerator creates a generator with the given template.
// An empty template falls back to a plain "{type} {entity}" line.
func NewEventGenerator(template string) *EventGenerator {
	if template == "" {
		template = "{type} {entity}"
	}
	return &EventGenerator{template: template}
}

func (g *EventGenerator) Generate(_ context.Context, gc model.GenerationContext) (*model.GeneratedContent, error) {
	if gc.Event == nil {
		return nil, fmt.Errorf("event generator requires an inbound event")
	}

	text := strings.ReplaceAll(g.template, "{type}", gc.Event.Type)
	text = strings.ReplaceAll(text, "{entity}", gc.Event.EntityID)
	text = strings.TrimSpace(text)

	return &model.GeneratedContent{
		Text: text,
		Mode: model.ModeText,
		Meta: &model.Metadata{
			Provider: "event",
		},
	}, nil
}

func (g *EventGenerator) Validate() []string {
	var errs []string
	if !strings.Contains(g.template, "{type}") && !strings.Contains(g.template, "{entity}") {
		errs = append(errs, "event template references neither {type} nor {entity}")
	}
	return errs
}
