package chat

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

const basicInstructions = "Write for a beginner.\n" +
	"- Keep it short (3–8 sentences).\n" +
	"- Explain jargon in plain language.\n" +
	"- Prefer bullets.\n" +
	"- Avoid deep implementation details unless asked.\n"

const standardInstructions = "Write at an intermediate level.\n" +
	"- Clear explanation with practical guidance.\n" +
	"- Use bullets and short sections.\n" +
	"- Include commands only when they add real value.\n"

const advancedInstructions = "Write for a technical audience.\n" +
	"- Be precise.\n" +
	"- Include concrete steps, commands, and edge cases when helpful.\n" +
	"- Mention security/reliability considerations if relevant.\n" +
	"- If you make assumptions, state them.\n"

func detailInstructions(level domain.DetailLevel) string {
	switch level {
	case domain.DetailBasic:
		return basicInstructions
	case domain.DetailAdvanced:
		return advancedInstructions
	default:
		return standardInstructions
	}
}

// BuildPrompt renders the generation prompt. Pure and deterministic: the
// output depends only on the arguments, and a different tier changes only
// the style block and the tier line.
func BuildPrompt(question string, level domain.DetailLevel, sources []domain.SourceRecord) string {
	var ctxLines []string
	for i, src := range sources {
		ctxLines = append(ctxLines, fmt.Sprintf("[%d] %s (%s)\n%s", i+1, src.Title, src.URL, src.Snippet))
	}

	sourceBlock := "(no sources retrieved)"
	if len(ctxLines) > 0 {
		sourceBlock = strings.Join(ctxLines, "\n\n")
	}

	var b strings.Builder
	b.WriteString("You are a retrieval-augmented assistant.\n")
	b.WriteString("Rules:\n")
	b.WriteString("1) Use ONLY the provided Sources for factual claims.\n")
	b.WriteString("2) If Sources are insufficient, say what is missing and what you would check next.\n")
	b.WriteString("3) When you cite a source, cite it inline like [1], [2].\n")
	b.WriteString("4) Do not invent URLs, quotes, or document titles.\n\n")
	b.WriteString("Response style:\n")
	b.WriteString(detailInstructions(level))
	b.WriteString("\nDetail level selected: ")
	b.WriteString(string(level))
	b.WriteString("\n\nSources:\n")
	b.WriteString(sourceBlock)
	b.WriteString("\n\nUser question:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:\n")
	return b.String()
}
