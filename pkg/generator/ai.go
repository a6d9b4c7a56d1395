package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flapboard/pkg/llm"
	"flapboard/pkg/model"
)

// AIGenerator produces short display messages through an AI provider.
// The zero provider instance is a template: WithProvider binds a copy
// to a concrete provider, which is how the failover layer swaps the
// primary for the alternate.
type AIGenerator struct {
	provider llm.Provider
	profile  string
	prompt   string
	cost     model.CostTier
	maxChars int
}

// NewAIGenerator creates an unbound AI generator.
// prompt is the instruction block; cycle details are appended per call.
func NewAIGenerator(profile, prompt string, cost model.CostTier, maxChars int) *AIGenerator {
	if maxChars <= 0 {
		maxChars = 120
	}
	return &AIGenerator{
		profile:  profile,
		prompt:   prompt,
		cost:     cost,
		maxChars: maxChars,
	}
}

// WithProvider implements ProviderBound.
func (g *AIGenerator) WithProvider(p llm.Provider) ContentGenerator {
	bound := *g
	bound.provider = p
	return &bound
}

func (g *AIGenerator) Generate(ctx context.Context, gc model.GenerationContext) (*model.GeneratedContent, error) {
	if g.provider == nil {
		return nil, fmt.Errorf("ai generator %q has no provider bound", g.profile)
	}

	prompt := g.buildPrompt(gc)

	if gc.PromptsOnly {
		return &model.GeneratedContent{
			Text: prompt,
			Mode: model.ModeText,
			Meta: &model.Metadata{
				Provider:   g.provider.Name(),
				Model:      g.provider.ModelFor(g.profile),
				Cost:       g.cost,
				UserPrompt: prompt,
			},
		}, nil
	}

	text, err := g.provider.GenerateText(ctx, g.profile, prompt)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &llm.ProviderError{
			Kind:     llm.KindGeneric,
			Provider: g.provider.Name(),
			Message:  "provider returned empty response",
		}
	}

	return &model.GeneratedContent{
		Text: text,
		Mode: model.ModeText,
		Meta: &model.Metadata{
			Provider:   g.provider.Name(),
			Model:      g.provider.ModelFor(g.profile),
			Cost:       g.cost,
			UserPrompt: prompt,
		},
	}, nil
}

func (g *AIGenerator) Validate() []string {
	var errs []string
	if g.profile == "" {
		errs = append(errs, "ai generator requires a profile")
	}
	if g.prompt == "" {
		errs = append(errs, "ai generator requires a prompt")
	}
	return errs
}

// buildPrompt appends cycle details to the instruction block.
func (g *AIGenerator) buildPrompt(gc model.GenerationContext) string {
	var b strings.Builder
	b.WriteString(g.prompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Keep the message under %d characters. Plain uppercase text, no emoji, no markdown.\n", g.maxChars)
	fmt.Fprintf(&b, "Time of day: %s.\n", timeOfDay(gc.Timestamp))
	if gc.UpdateType == model.UpdateMinor {
		b.WriteString("This is a small refresh; a short variation is fine.\n")
	}
	if gc.Event != nil {
		fmt.Fprintf(&b, "React to this event: %s %s.\n", gc.Event.Type, gc.Event.EntityID)
	}
	return b.String()
}

func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 6:
		return "night"
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}
